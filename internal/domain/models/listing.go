package models

// Column is a results table header
type Column struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable"`
	Link     string `json:"link,omitempty"` // re-sorts by this column, keeping the filter state
	Sorted   bool   `json:"sorted"`
	Dir      string `json:"dir,omitempty"` // direction of the link
}

// Cell is one rendered value of a results row
type Cell struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Link  string `json:"link,omitempty"`
}

// Row is one record of the results table
type Row struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Link  string `json:"link"`
	Cells []Cell `json:"cells"`
}

// FilterValue is a filter input with the value submitted for it
type FilterValue struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	InputID string `json:"input_id"`
	Value   string `json:"value"`
}

// SearchResult is one page of a registry listing
type SearchResult struct {
	Page         *RegistryPage  `json:"page"`
	Columns      []Column       `json:"columns"`
	Rows         []Row          `json:"rows"`
	Pagination   *PaginatedList `json:"pagination"`
	FilterValues []FilterValue  `json:"filters"`
	Sort         string         `json:"sort"` // as requested; blank when absent or not sortable
	Dir          string         `json:"dir"`
	QueryString  string         `json:"query_string"`
	ExportLink   string         `json:"export_link"`
	FormAction   string         `json:"form_action"`
}

// DetailField is a labelled value of the record detail view
type DetailField struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// RecordDetail is the detail view of a single record
type RecordDetail struct {
	Page     *RegistryPage `json:"page"`
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Fields   []DetailField `json:"fields"`
	BackLink string        `json:"back_link"`
}
