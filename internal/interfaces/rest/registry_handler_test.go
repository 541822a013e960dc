package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexuscrm/registry/internal/application/services"
	"github.com/nexuscrm/registry/internal/testutil"
	"github.com/nexuscrm/registry/pkg/auth"
	"github.com/nexuscrm/registry/pkg/constants"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	sm     *services.ServiceManager
	ids    services.Identifiers
	router *gin.Engine
	issuer *auth.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	sm, ids := services.SetupIntegrationTest(t)
	issuer, err := auth.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	return &testServer{
		t:      t,
		sm:     sm,
		ids:    ids,
		issuer: issuer,
		router: NewRouter(sm, zap.NewNop(), RouterOptions{Issuer: issuer}),
	}
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	s.t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

// filter requests a page's filter form action with the given parameters
func (s *testServer) filter(segment string, params url.Values) *testutil.Document {
	s.t.Helper()
	params.Set(constants.ActionFilter, constants.ActionFilterValue)
	w := s.get("/" + segment + "/" + constants.FormRegistryFilter + "?" + params.Encode())
	require.Equal(s.t, http.StatusOK, w.Code)
	return testutil.ParseHTML(s.t, w.Body.String())
}

func (s *testServer) pageTitle(segment string) string {
	s.t.Helper()
	page, err := s.sm.Pages.GetBySegment(context.Background(), segment)
	require.NoError(s.t, err)
	return page.Title
}

func TestUseLink(t *testing.T) {
	s := newTestServer(t)

	w := s.get("/contact-search-extra/")
	require.Equal(t, http.StatusOK, w.Code)
	doc := testutil.ParseHTML(t, w.Body.String())

	cells := doc.Select("table.results tbody tr td")
	require.NotEmpty(t, cells)
	links := testutil.SelectFrom(cells[0], "a")
	require.NotEmpty(t, links)
	assert.Contains(t, testutil.Attr(links[0], "href"), "/contact-search-extra/")
}

func TestFilteredSearchResults(t *testing.T) {
	s := newTestServer(t)
	doc := s.filter("contact-search", url.Values{"FirstName": {"Alexander"}})

	rows := doc.Select("table.results tbody tr")
	require.Len(t, rows, 1)
	cells := testutil.Children(rows[0], "td")
	assert.Equal(t, "Alexander", testutil.Text(cells[0]))
	assert.Equal(t, "Bernie", testutil.Text(cells[1]))
}

func TestFilteredByRelationSearchResults(t *testing.T) {
	s := newTestServer(t)
	doc := s.filter("contact-search-extra", url.Values{"RegistryPage.Title": {s.pageTitle("contact-search-extra")}})

	rows := doc.Select("table.results tbody tr")
	require.Len(t, rows, 1)
	cells := testutil.Children(rows[0], "td")
	assert.Equal(t, "Jimmy", testutil.Text(testutil.SelectFrom(cells[0], "a")[0]))
	assert.Equal(t, "Sherson", testutil.Text(testutil.SelectFrom(cells[1], "a")[0]))
}

func TestUserCustomSummaryField(t *testing.T) {
	s := newTestServer(t)
	doc := testutil.ParseHTML(t, s.get("/contact-search-extra/").Body.String())

	rows := doc.Select("table.results tbody tr")
	require.NotEmpty(t, rows)
	cells := testutil.Children(rows[0], "td")
	require.Len(t, cells, 4)
	links := testutil.SelectFrom(cells[3], "a")
	require.Len(t, links, 1)
	assert.True(t, strings.HasPrefix(testutil.Text(links[0]), "REF-"))
}

func TestSearchResultsLimitAndStart(t *testing.T) {
	s := newTestServer(t)
	doc := s.filter("contact-search-limit", url.Values{"Sort": {"FirstName"}, "Dir": {"DESC"}})

	assert.Len(t, doc.Select("table.results tbody tr"), 3, "limited to 3 search results")
	anchors := doc.Select("ul.pageNumbers li a")
	require.Len(t, anchors, 4)

	href := testutil.Attr(anchors[0], "href")
	assert.Contains(t, href, "Sort=FirstName")
	assert.Contains(t, href, "Dir=DESC")
	assert.Contains(t, href, "start=0")
	assert.Contains(t, testutil.Attr(anchors[1], "href"), "start=3")
	assert.Contains(t, testutil.Attr(anchors[2], "href"), "start=6")
}

func TestGetParamsPopulatesSearchForm(t *testing.T) {
	s := newTestServer(t)
	doc := s.filter("contact-search", url.Values{
		"FirstName": {"Alexander"},
		"Sort":      {"FirstName"},
		"Dir":       {"DESC"},
	})

	value := func(id string) string {
		fields := doc.Select("#" + id)
		require.Len(t, fields, 1, id)
		return testutil.Attr(fields[0], "value")
	}
	assert.Equal(t, "Alexander", value("Form_RegistryFilterForm_FirstName"))
	assert.Equal(t, "FirstName", value("Form_RegistryFilterForm_Sort"))
	assert.Equal(t, "DESC", value("Form_RegistryFilterForm_Dir"))
}

func TestQueryLinks(t *testing.T) {
	s := newTestServer(t)
	doc := s.filter("contact-search", url.Values{"FirstName": {"Alexander"}})

	anchors := doc.Select("table.results thead tr th a")
	require.NotEmpty(t, anchors)
	href := testutil.Attr(anchors[0], "href")
	assert.Contains(t, href, "FirstName=Alexander")
	assert.Contains(t, href, "Surname=")
	assert.Contains(t, href, "Sort=FirstName")
	assert.Contains(t, href, "Dir=ASC")
	assert.Contains(t, href, "action_doRegistryFilter=Filter")
}

func TestShowExistingRecord(t *testing.T) {
	s := newTestServer(t)
	id := s.ids.ID("RegistryPageTestContact", "alexander")

	w := s.get("/contact-search/show/" + strconv.FormatInt(id, 10))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alexander Bernie")
}

func TestPageNotFoundNonExistentRecord(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.get("/contact-search/show/123456").Code)
	assert.Equal(t, http.StatusNotFound, s.get("/contact-search/show/abc").Code)
}

func TestColumnName(t *testing.T) {
	s := newTestServer(t)
	doc := s.filter("contact-search", url.Values{})

	anchors := doc.Select("table.results thead tr th a")
	require.NotEmpty(t, anchors)
	assert.Equal(t, "First name", testutil.Text(anchors[0]))
}

func TestSortableColumns(t *testing.T) {
	s := newTestServer(t)
	doc := testutil.ParseHTML(t, s.get("/contact-search-extra/").Body.String())

	columns := doc.Select("table.results thead tr th")
	require.Len(t, columns, 4)
	assert.NotEmpty(t, testutil.Children(columns[0], "a"))
	assert.NotEmpty(t, testutil.Children(columns[1], "a"))
	assert.NotEmpty(t, testutil.Children(columns[2], "a"))
	assert.Empty(t, testutil.Children(columns[3], "a"))
	assert.Equal(t, "Other", testutil.Text(columns[3]))
}

func TestExportLink(t *testing.T) {
	s := newTestServer(t)
	doc := s.filter("contact-search", url.Values{
		"FirstName": {"Alexander"},
		"Sort":      {"FirstName"},
		"Dir":       {"DESC"},
	})

	anchor := doc.Select("a.export")
	require.Len(t, anchor, 1)
	href := testutil.Attr(anchor[0], "href")
	assert.Contains(t, href, "export?")
	assert.Contains(t, href, "FirstName=Alexander")
	assert.Contains(t, href, "Surname=")
	assert.Contains(t, href, "Sort=FirstName")
	assert.Contains(t, href, "Dir=DESC")
	assert.Contains(t, href, "action_doRegistryFilter=Filter")
}

func TestExport(t *testing.T) {
	s := newTestServer(t)

	w := s.get("/contact-search/export?FirstName=Alexander&Surname=&Sort=FirstName&Dir=DESC&action_doRegistryFilter=Filter")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Regexp(t, `^attachment; filename="contact-search-export-\d{4}-\d{2}-\d{2}-\d{6}\.csv"$`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "First name,Surname\nAlexander,Bernie\n", w.Body.String())
}

func TestUnknownPage(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/nope/", "/nope/RegistryFilterForm", "/nope/export", "/nope/show/1", "/a/b/c/d"} {
		w := s.get(path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "could not be found", path)
	}
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t)

	doc := testutil.ParseHTML(t, s.get("/").Body.String())
	assert.Len(t, doc.Select("ul.registryPages li a"), 3)

	w := s.get("/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"sqlite"}`, w.Body.String())

	w = s.get("/contact-search")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/contact-search/", w.Header().Get("Location"))
}
