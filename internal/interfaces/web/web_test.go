package web

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/internal/testutil"
)

func render(t *testing.T, name string, data map[string]interface{}) *testutil.Document {
	t.Helper()
	tmpl, err := Templates()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, name, data))
	return testutil.ParseHTML(t, buf.String())
}

func sampleResult() *models.SearchResult {
	page := &models.RegistryPage{Title: "People", URLSegment: "people"}
	pagination := models.NewPaginatedList(7, 3, 3, func(start int) string {
		return "/people/RegistryFilterForm?Sort=Name&start=" + strconv.Itoa(start)
	})
	return &models.SearchResult{
		Page: page,
		Columns: []models.Column{
			{Name: "Name", Label: "Name", Sortable: true, Link: "/people/RegistryFilterForm?Sort=Name&Dir=DESC", Sorted: true},
			{Name: "Other", Label: "Other"},
		},
		Rows: []models.Row{
			{ID: 4, Cells: []models.Cell{{Name: "Name", Value: "<Ann>"}, {Name: "Other", Value: "x", Link: "/people/show/4"}}},
		},
		Pagination:   pagination,
		FilterValues: []models.FilterValue{{Name: "Name", Label: "Name", InputID: "Form_RegistryFilterForm_Name", Value: "A&B"}},
		Sort:         "Name",
		Dir:          "ASC",
		ExportLink:   "/people/export?Name=A%26B&Sort=Name",
		FormAction:   "/people/RegistryFilterForm",
	}
}

func TestRegistryTemplate(t *testing.T) {
	doc := render(t, TemplateRegistry, map[string]interface{}{"Title": "People", "Result": sampleResult()})

	ths := doc.Select("table.results thead tr th")
	require.Len(t, ths, 2)
	assert.Len(t, testutil.Children(ths[0], "a"), 1)
	assert.Equal(t, "Other", testutil.Text(ths[1]))

	cells := doc.Select("table.results tbody tr td")
	require.Len(t, cells, 2)
	assert.Equal(t, "<Ann>", testutil.Text(cells[0]))
	links := testutil.SelectFrom(cells[1], "a")
	require.Len(t, links, 1)
	assert.Equal(t, "/people/show/4", testutil.Attr(links[0], "href"))

	input := doc.Select("#Form_RegistryFilterForm_Name")
	require.Len(t, input, 1)
	assert.Equal(t, "A&B", testutil.Attr(input[0], "value"))
	assert.Equal(t, "Name", testutil.Attr(input[0], "name"))
	assert.Equal(t, "Name", testutil.Attr(doc.Select("#Form_RegistryFilterForm_Sort")[0], "value"))
	assert.Equal(t, "ASC", testutil.Attr(doc.Select("#Form_RegistryFilterForm_Dir")[0], "value"))

	pages := doc.Select("ul.pageNumbers li a")
	assert.Len(t, pages, 3)
	assert.Len(t, doc.Select("a.prev"), 1)
	assert.Len(t, doc.Select("a.next"), 1)
	assert.Len(t, doc.Select("li.current"), 1)

	export := doc.Select("a.export")
	require.Len(t, export, 1)
	assert.Equal(t, "/people/export?Name=A%26B&Sort=Name", testutil.Attr(export[0], "href"))
}

func TestRegistryTemplate_ContentIsMarkup(t *testing.T) {
	result := sampleResult()
	result.Page.Content = `<p class="intro">Find <em>people</em></p>`

	doc := render(t, TemplateRegistry, map[string]interface{}{"Title": "People", "Result": result})
	intro := doc.Select("div.content p.intro")
	require.Len(t, intro, 1)
	assert.Equal(t, "Find people", testutil.Text(intro[0]))
}

func TestRegistryTemplate_SinglePage(t *testing.T) {
	result := sampleResult()
	result.Pagination = models.NewPaginatedList(0, 0, 10, func(int) string { return "" })
	result.Rows = nil

	doc := render(t, TemplateRegistry, map[string]interface{}{"Title": "People", "Result": result})
	assert.Empty(t, doc.Select("ul.pageNumbers"))
	assert.Empty(t, doc.Select("table.results tbody tr"))
	assert.Len(t, doc.Select("p.noResults"), 1)
}

func TestShowTemplate(t *testing.T) {
	detail := &models.RecordDetail{
		Page:     &models.RegistryPage{Title: "People", URLSegment: "people"},
		ID:       4,
		Title:    "Ann Smith",
		Fields:   []models.DetailField{{Name: "Name", Label: "Name", Value: "Ann"}},
		BackLink: "/people/",
	}
	doc := render(t, TemplateShow, map[string]interface{}{"Title": detail.Title, "Detail": detail})

	h1 := doc.Select("h1")
	require.Len(t, h1, 1)
	assert.Equal(t, "Ann Smith", testutil.Text(h1[0]))
	assert.Equal(t, "/people/", testutil.Attr(doc.Select("a.back")[0], "href"))
	assert.Len(t, doc.Select("dl.recordDetail dd"), 1)
}

func TestIndexAndErrorTemplates(t *testing.T) {
	doc := render(t, TemplateIndex, map[string]interface{}{
		"Title": "Registry",
		"Pages": []*models.RegistryPage{{Title: "People", URLSegment: "people"}},
	})
	links := doc.Select("ul.registryPages li a")
	require.Len(t, links, 1)
	assert.Equal(t, "/people/", testutil.Attr(links[0], "href"))

	doc = render(t, TemplateError, map[string]interface{}{"Title": "Not Found", "Status": 404, "Message": "Page not found"})
	assert.Equal(t, "404 Not Found", testutil.Text(doc.Select("h1")[0]))
}

func TestStatic(t *testing.T) {
	f, err := Static().Open("registry.css")
	require.NoError(t, err)
	_ = f.Close()
}
