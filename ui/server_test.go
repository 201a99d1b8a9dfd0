package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataprobe/adapters/excel"
	"dataprobe/app"
	"dataprobe/internal/session"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// salesCSV has 25 rows: id and amount run 1..25, region alternates Norte/Sul starting
// with Norte, and day runs over January 2024.
func salesCSV() string {
	var b strings.Builder
	b.WriteString("id,region,amount,day\n")
	for i := 1; i <= 25; i++ {
		region := "Norte"
		if i%2 == 0 {
			region = "Sul"
		}
		fmt.Fprintf(&b, "%d,%s,%d,2024-01-%02d\n", i, region, i, i)
	}
	return b.String()
}

func newTestServer(t *testing.T, opts Options) http.Handler {
	t.Helper()
	reader := excel.NewDataReader(excel.DefaultLoaderConfig(), nil)
	explorer := app.NewExplorerService(reader, nil, nil)
	srv, err := NewServer(explorer, session.NewManager(nil, nil), opts, nil, nil)
	require.NoError(t, err)
	return srv.Handler()
}

func uploadRequest(t *testing.T, filename, contentType, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadField, filename)}
	header["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookieOf(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", SessionCookie)
	return nil
}

func uploadSales(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rec := serve(h, uploadRequest(t, "vendas.csv", "text/csv", salesCSV()), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))
	return sessionCookieOf(t, rec)
}

func postFilters(h http.Handler, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/filters", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(h, req, cookie)
}

func get(h http.Handler, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return serve(h, httptest.NewRequest(http.MethodGet, path, nil), cookie)
}

func TestIndexWithoutSessionShowsUploadForm(t *testing.T) {
	h := newTestServer(t, DefaultOptions())

	rec := get(h, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="dataset"`)
	assert.Contains(t, rec.Body.String(), "até 50 MB")
}

func TestUploadShowsExplorer(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	cookie := uploadSales(t, h)

	rec := get(h, "/", cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "vendas.csv")
	assert.Contains(t, body, `name="cat:region" value="Sul"`)
	assert.Contains(t, body, `name="lo:amount" value="1"`)
	assert.Contains(t, body, `name="end:day" value="2024-01-25"`)
	assert.Contains(t, body, "/charts/hist/amount.svg")
	assert.Contains(t, body, "/charts/bar/region.svg")
	assert.Contains(t, body, "Matriz de correlação")
	assert.Contains(t, body, "25 de 25 linhas (no_filters)")
}

func TestFilterThenExportCSV(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	cookie := uploadSales(t, h)

	rec := postFilters(h, url.Values{"cat:region": {"Sul"}, "lo:amount": {"10"}, "hi:amount": {"20"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	rec = get(h, "/export.csv", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), excel.ExportCSVName)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 1+6) // 10, 12, 14, 16, 18, 20
	assert.Equal(t, "id,region,amount,day", lines[0])
	assert.Equal(t, "10,Sul,10,2024-01-10", lines[1])
	for _, line := range lines[1:] {
		assert.Contains(t, line, ",Sul,")
	}
}

func TestFilterKeepsTheDayOfTheEndDate(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	cookie := uploadSales(t, h)

	rec := postFilters(h, url.Values{"start:day": {"2024-01-03"}, "end:day": {"2024-01-05"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = get(h, "/api/state", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Rows   int      `json:"rows"`
		Status string   `json:"status"`
		Active []string `json:"active"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 3, state.Rows)
	assert.Equal(t, "filtered", state.Status)
	assert.Equal(t, []string{"day"}, state.Active)
}

func TestFilterWithNoMatchesWarns(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	cookie := uploadSales(t, h)

	rec := postFilters(h, url.Values{"lo:amount": {"30"}, "hi:amount": {"40"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = get(h, "/", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nenhum dado encontrado")

	rec = get(h, "/export.csv", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id,region,amount,day", strings.TrimSpace(rec.Body.String()))
}

func TestInvalidFilterIsRejected(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	cookie := uploadSales(t, h)

	rec := postFilters(h, url.Values{"lo:amount": {"abc"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Filtro inválido")

	rec = postFilters(h, url.Values{"lo:amount": {"20"}, "hi:amount": {"10"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		content     string
		status      int
		message     string
	}{
		{"unsupported", "notes.pdf", "application/pdf", "%PDF-1.4", http.StatusBadRequest, "Formato não suportado"},
		{"empty", "empty.csv", "text/csv", "", http.StatusBadRequest, "está vazio"},
		{"malformed", "bad.csv", "text/csv", "a,b\n1,2\n3,4,5\n", http.StatusBadRequest, "linha 3"},
		{"broken workbook", "bad.xlsx", "application/octet-stream", "not a zip", http.StatusBadRequest, "mal formatado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, DefaultOptions())
			rec := serve(h, uploadRequest(t, tt.filename, tt.contentType, tt.content), nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxUploadBytes = 512
	h := newTestServer(t, opts)

	rec := serve(h, uploadRequest(t, "vendas.csv", "text/csv", salesCSV()), nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadWithoutFile(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := serve(h, req, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionRoutesRequireUpload(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	stale := &http.Cookie{Name: SessionCookie, Value: "not-a-session"}

	for _, path := range []string{"/export.csv", "/export.xlsx", "/report.md", "/charts/hist/amount.svg"} {
		rec := get(h, path, stale)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := get(h, "/api/state", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestCharts(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	cookie := uploadSales(t, h)

	for _, path := range []string{"/charts/hist/amount.svg", "/charts/bar/region.svg"} {
		rec := get(h, path, cookie)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "<svg")
	}

	for _, path := range []string{"/charts/hist/region.svg", "/charts/bar/amount.svg", "/charts/hist/missing.svg", "/charts/pie/amount.svg", "/charts/hist/amount.png", "/charts/hist/day.svg"} {
		rec := get(h, path, cookie)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestChartOfColumnWithSlash(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	rec := serve(h, uploadRequest(t, "r.csv", "text/csv", "receita/custo\n1\n2\n3\n"), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookie := sessionCookieOf(t, rec)

	rec = get(h, chartURL("hist", "receita/custo"), cookie)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportXLSXReloads(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	cookie := uploadSales(t, h)
	require.Equal(t, http.StatusSeeOther, postFilters(h, url.Values{"cat:region": {"Norte"}}, cookie).Code)

	rec := get(h, "/export.xlsx", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	reader := excel.NewDataReader(excel.DefaultLoaderConfig(), nil)
	tbl, err := reader.Load(t.Context(), bytes.NewReader(rec.Body.Bytes()), excel.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, 13, tbl.NumRows())
	assert.Equal(t, []string{"id", "region", "amount", "day"}, tbl.ColumnNames())
}

func TestReportMarkdown(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	cookie := uploadSales(t, h)

	rec := get(h, "/report.md", cookie)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "relatorio.md")
	assert.Contains(t, rec.Body.String(), "vendas.csv")
	assert.Contains(t, rec.Body.String(), "amount")
}

func TestReuploadReplacesSession(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	first := uploadSales(t, h)

	rec := serve(h, uploadRequest(t, "outro.csv", "text/csv", "a\nx\ny\n"), first)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	second := sessionCookieOf(t, rec)

	assert.NotEqual(t, first.Value, second.Value)
	assert.Equal(t, http.StatusNotFound, get(h, "/export.csv", first).Code)
	assert.Equal(t, http.StatusOK, get(h, "/export.csv", second).Code)
}

func TestReset(t *testing.T) {
	h := newTestServer(t, DefaultOptions())
	cookie := uploadSales(t, h)

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/reset", nil), cookie)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	cleared := sessionCookieOf(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, http.StatusNotFound, get(h, "/export.csv", cookie).Code)
}

func TestStaticAssets(t *testing.T) {
	h := newTestServer(t, DefaultOptions())

	rec := get(h, "/static/app.css", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
