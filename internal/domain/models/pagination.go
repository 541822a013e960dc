package models

// PageLink is one numbered page of a paginated list
type PageLink struct {
	Num     int    `json:"num"`
	Start   int    `json:"start"`
	Link    string `json:"link"`
	Current bool   `json:"current"`
}

// PaginatedList describes the paging state of a result set
type PaginatedList struct {
	TotalItems  int64      `json:"total_items"`
	PageLength  int        `json:"page_length"`
	Start       int        `json:"start"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	FirstItem   int64      `json:"first_item"`
	LastItem    int64      `json:"last_item"`
	Pages       []PageLink `json:"pages"`
	PrevLink    string     `json:"prev_link,omitempty"`
	NextLink    string     `json:"next_link,omitempty"`
}

// NewPaginatedList computes paging for total items starting at start.
// linkFor builds the URL of the page beginning at the given offset.
func NewPaginatedList(total int64, start, pageLength int, linkFor func(start int) string) *PaginatedList {
	if pageLength <= 0 {
		pageLength = 1
	}
	if start < 0 {
		start = 0
	}

	p := &PaginatedList{
		TotalItems: total,
		PageLength: pageLength,
		Start:      start,
	}

	p.TotalPages = int((total + int64(pageLength) - 1) / int64(pageLength))
	p.CurrentPage = start/pageLength + 1

	if total > 0 && int64(start) < total {
		p.FirstItem = int64(start) + 1
		p.LastItem = int64(start + pageLength)
		if p.LastItem > total {
			p.LastItem = total
		}
	}

	for i := 0; i < p.TotalPages; i++ {
		pageStart := i * pageLength
		p.Pages = append(p.Pages, PageLink{
			Num:     i + 1,
			Start:   pageStart,
			Link:    linkFor(pageStart),
			Current: i+1 == p.CurrentPage,
		})
	}

	if p.NotFirstPage() {
		prev := start - pageLength
		if prev < 0 {
			prev = 0
		}
		p.PrevLink = linkFor(prev)
	}
	if p.NotLastPage() {
		p.NextLink = linkFor(start + pageLength)
	}

	return p
}

// MoreThanOnePage reports whether paging controls are needed
func (p *PaginatedList) MoreThanOnePage() bool {
	return p.TotalPages > 1
}

// NotFirstPage reports whether a previous page exists
func (p *PaginatedList) NotFirstPage() bool {
	return p.Start > 0
}

// NotLastPage reports whether a next page exists
func (p *PaginatedList) NotLastPage() bool {
	return p.CurrentPage < p.TotalPages
}

// PaginationSummary returns the page links within context pages of the
// current one, context counted in total. Zero returns every page.
func (p *PaginatedList) PaginationSummary(context int) []PageLink {
	if context <= 0 || context >= len(p.Pages) {
		return p.Pages
	}

	half := context / 2
	from := p.CurrentPage - 1 - half
	if from < 0 {
		from = 0
	}
	to := from + context
	if to > len(p.Pages) {
		to = len(p.Pages)
		from = to - context
	}
	return p.Pages[from:to]
}
