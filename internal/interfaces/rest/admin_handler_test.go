package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexuscrm/registry/internal/testutil"
	"github.com/nexuscrm/registry/pkg/constants"
)

func (s *testServer) admin(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	s.t.Helper()
	token, err := s.issuer.GenerateToken("tester")
	require.NoError(s.t, err)

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAdmin_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := s.get("/api/admin/models")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
}

func TestAdmin_ListModels(t *testing.T) {
	s := newTestServer(t)

	w := s.admin(http.MethodGet, "/api/admin/models", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	require.Len(t, data, 3)
	assert.Equal(t, constants.ModelRegistryPage, data[0].(map[string]interface{})["api_name"])
}

func TestAdmin_PageLifecycle(t *testing.T) {
	s := newTestServer(t)

	body := `{"title":"Adults","url_segment":"adults","data_class":"RegistryPageTestContact","page_length":2,"filter_expr":"Age >= 18"}`
	w := s.admin(http.MethodPost, "/api/admin/pages", "application/json", strings.NewReader(body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)["data"].(map[string]interface{})
	id := int64(created["id"].(float64))
	assert.NotZero(t, id)

	doc := testutil.ParseHTML(t, s.get("/adults/").Body.String())
	assert.Len(t, doc.Select("table.results tbody tr"), 2)

	w = s.admin(http.MethodPost, "/api/admin/pages", "application/json", strings.NewReader(body))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decode(t, w)["code"])

	w = s.admin(http.MethodPost, "/api/admin/pages", "application/json", strings.NewReader(`{"title":""}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	update := `{"title":"Grown-ups","url_segment":"grown-ups","data_class":"RegistryPageTestContact"}`
	w = s.admin(http.MethodPut, "/api/admin/pages/"+jsonID(id), "application/json", strings.NewReader(update))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusNotFound, s.get("/adults/").Code)
	assert.Equal(t, http.StatusOK, s.get("/grown-ups/").Code)

	w = s.admin(http.MethodGet, "/api/admin/pages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].([]interface{}), 4)

	w = s.admin(http.MethodDelete, "/api/admin/pages/"+jsonID(id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, s.get("/grown-ups/").Code)

	w = s.admin(http.MethodDelete, "/api/admin/pages/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_ImportBody(t *testing.T) {
	s := newTestServer(t)

	csv := "FirstName,Surname\nZoe,Adams\n"
	w := s.admin(http.MethodPost, "/api/admin/models/RegistryPageTestContact/import", "text/csv", strings.NewReader(csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["imported"])

	doc := testutil.ParseHTML(t, s.get("/contact-search/RegistryFilterForm?FirstName=Zoe").Body.String())
	assert.Len(t, doc.Select("table.results tbody tr"), 1)
}

func TestAdmin_ImportMultipart(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "contacts.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("First name,Surname\nAmy,Pond\nRory,Williams\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := s.admin(http.MethodPost, "/api/admin/models/RegistryPageTestContact/import", mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode(t, w)["data"].(map[string]interface{})["imported"])

	w = s.admin(http.MethodPost, "/api/admin/models/Nope/import", "text/csv", strings.NewReader("a\n"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["code"])
}

func jsonID(id int64) string {
	return strconv.FormatInt(id, 10)
}
