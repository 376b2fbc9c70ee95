package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"metaQuery/internal/ingest"
	"metaQuery/internal/metaquery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testCSV = "Concept,Definition,Variable\n" +
	"Age,years old,age_years\n" +
	"AGE,Years-Old,age_dup\n" +
	"Height,cm,height_cm\n" +
	"age,months,age_months\n"

func newTestServer(t *testing.T) http.Handler {
	s, err := New(ingest.NewCache(metaquery.CDefaultProvenanceColumn), Config{})
	require.NoError(t, err)
	return s.Router()
}

func uploadRequest(t *testing.T, files map[string]string) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		fw.Write([]byte(content))
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func upload(t *testing.T, h http.Handler) string {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, uploadRequest(t, map[string]string{"meta.csv": testCSV}))
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/datasets/"), loc)
	return loc
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestIndexPrompt(t *testing.T) {
	h := newTestServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please upload at least one CSV or Excel file")
}

func TestUploadAndView(t *testing.T) {
	h := newTestServer(t)
	loc := upload(t, h)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, loc, nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Total rows before deduplication: 4")
	assert.Contains(t, body, "Total rows after deduplication: 3")
	assert.Contains(t, body, "Rows removed: 1")
	assert.Contains(t, body, "Concept: AGE (Count: 1)")
	assert.Contains(t, body, "Concept: Age (Count: 2)")
	assert.Contains(t, body, "Total Groups: 2")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, loc+"?q=cm", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body = w.Body.String()
	assert.Contains(t, body, "<mark>cm</mark>")
	assert.Contains(t, body, "Total Groups: 1")
}

func TestUploadErrors(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, uploadRequest(t, map[string]string{"notes.txt": "hello"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UnsupportedFormat")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, uploadRequest(t, map[string]string{}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please upload")

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/datasets/unknown/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func exportValues(t *testing.T, h http.Handler, loc string, form url.Values) []string {
	req := httptest.NewRequest(http.MethodPost, strings.TrimSuffix(loc, "/")+"/export",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), metaquery.CExportFileName)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(metaquery.CExportSheetName)
	require.NoError(t, err)
	values := make([]string, 0, len(rows))
	for _, r := range rows {
		require.Len(t, r, 1)
		values = append(values, r[0])
	}
	return values
}

func TestExport(t *testing.T) {
	h := newTestServer(t)
	loc := upload(t, h)

	// row 3 is displayed inside the Age group, ahead of Height
	got := exportValues(t, h, loc, url.Values{"select": {"2", "3"}})
	assert.Equal(t, []string{"age_months", "height_cm"}, got)

	got = exportValues(t, h, loc, url.Values{})
	assert.Equal(t, []string{"age_years", "age_months", "height_cm"}, got)

	got = exportValues(t, h, loc, url.Values{"q": {"height"}})
	assert.Equal(t, []string{"height_cm"}, got)
}

func TestExportBadSelection(t *testing.T) {
	h := newTestServer(t)
	loc := upload(t, h)
	req := httptest.NewRequest(http.MethodPost, strings.TrimSuffix(loc, "/")+"/export",
		strings.NewReader("select=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
