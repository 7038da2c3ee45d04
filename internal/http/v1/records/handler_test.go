package records

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/xuri/excelize/v2"

	"github.com/RaidenIV/dj-database/internal/platform/auth"
	applog "github.com/RaidenIV/dj-database/internal/platform/logging"
	appmiddleware "github.com/RaidenIV/dj-database/internal/platform/middleware"
	"github.com/RaidenIV/dj-database/internal/platform/respond"
	recordsvc "github.com/RaidenIV/dj-database/internal/service/record"
)

const testToken = "s3cret-admin-token"

type testEnv struct {
	router chi.Router
	svc    *recordsvc.Service
}

func newTestEnv(t *testing.T, token string, opts Options) *testEnv {
	t.Helper()
	svc := recordsvc.NewService(recordsvc.NewMemoryStore())

	router := chi.NewRouter()
	router.Use(
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		applog.RequestLogger(),
		respond.Recoverer(),
	)
	api := humachi.New(router, huma.DefaultConfig("RecordsTest", "test"))
	api.UseMiddleware(auth.NewAuthMiddleware(api, auth.NewTokenVerifier(token)))
	Register(api, svc, recordsvc.NewImporter(svc, nil), opts)
	return &testEnv{router: router, svc: svc}
}

func (e *testEnv) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	resp := httptest.NewRecorder()
	e.router.ServeHTTP(resp, req)
	return resp
}

const novaJSON = `{"stageName":"DJ Nova","fullName":"Nova Reyes","age":"25","email":"nova@example.com","state":"tx","phoneNumber":"1 (555) 123-4567"}`

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(resp.Body.Bytes(), &v); err != nil {
		t.Fatalf("json unmarshal: %v (body %s)", err, resp.Body.String())
	}
	return v
}

func TestCreateRecord(t *testing.T) {
	env := newTestEnv(t, testToken, Options{Prefix: "/v1"})

	resp := env.do(http.MethodPost, "/api/records", novaJSON, true)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}

	rec := decode[Record](t, resp)
	if rec.ID == "" {
		t.Fatal("expected id")
	}
	if rec.State != "Texas" {
		t.Errorf("expected state Texas, got %s", rec.State)
	}
	if rec.PhoneNumber != "5551234567" {
		t.Errorf("expected phone 5551234567, got %s", rec.PhoneNumber)
	}
	if loc := resp.Header().Get("Location"); loc != "/v1/api/records/"+rec.ID {
		t.Errorf("unexpected Location %q", loc)
	}

	var raw map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &raw)
	created, _ := raw["createdAt"].(string)
	if len(created) != len("2024-01-15T10:30:00.000Z") || !strings.HasSuffix(created, "Z") {
		t.Errorf("unexpected createdAt format %q", created)
	}
}

func TestCreateRecordMissingAge(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})

	body := `{"stageName":"DJ Nova","fullName":"Nova Reyes","email":"nova@example.com"}`
	resp := env.do(http.MethodPost, "/api/records", body, true)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}

	problem := decode[huma.ErrorModel](t, resp)
	if !strings.Contains(problem.Detail, "age") {
		t.Errorf("expected detail to name age, got %q", problem.Detail)
	}

	list := decode[[]Record](t, env.do(http.MethodGet, "/api/records", "", true))
	if len(list) != 0 {
		t.Fatalf("expected nothing persisted, got %d records", len(list))
	}
}

func TestCreateRecordDuplicate(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})

	if resp := env.do(http.MethodPost, "/api/records", novaJSON, true); resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	dup := `{"stageName":"dj nova","fullName":"Someone Else","age":"30","email":"NOVA@EXAMPLE.COM"}`
	resp := env.do(http.MethodPost, "/api/records", dup, true)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.Code, resp.Body.String())
	}
	problem := decode[huma.ErrorModel](t, resp)
	if !strings.Contains(problem.Detail, "stageName + email") {
		t.Errorf("unexpected detail %q", problem.Detail)
	}
}

func TestConcurrentCreatesOneWins(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})

	const n = 10
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = env.do(http.MethodPost, "/api/records", novaJSON, true).Code
		}()
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Errorf("unexpected status %d", c)
		}
	}
	if created != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 created and %d conflicts, got %d and %d", n-1, created, conflicts)
	}
}

func TestListRequiresToken(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})
	env.do(http.MethodPost, "/api/records", novaJSON, true)

	for _, tc := range []struct {
		name   string
		header string
		value  string
	}{
		{"no credentials", "", ""},
		{"wrong bearer", "Authorization", "Bearer nope"},
		{"wrong admin header", auth.AdminTokenHeader, "nope"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			resp := httptest.NewRecorder()
			env.router.ServeHTTP(resp, req)

			if resp.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.Code)
			}
			if got := resp.Header().Get("WWW-Authenticate"); got != "Bearer" {
				t.Errorf("expected WWW-Authenticate Bearer, got %q", got)
			}
			if strings.Contains(resp.Body.String(), "nova@example.com") {
				t.Error("unauthorized response leaked record data")
			}
		})
	}
}

func TestAdminTokenHeaderAccepted(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	req.Header.Set(auth.AdminTokenHeader, testToken)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestNoTokenConfiguredAllowsAll(t *testing.T) {
	env := newTestEnv(t, "", Options{})

	if resp := env.do(http.MethodGet, "/api/records", "", false); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestPublicSubmissions(t *testing.T) {
	env := newTestEnv(t, testToken, Options{PublicSubmissions: true})

	if resp := env.do(http.MethodPost, "/api/records", novaJSON, false); resp.Code != http.StatusCreated {
		t.Fatalf("expected public create 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if resp := env.do(http.MethodGet, "/api/records", "", false); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected list to stay protected, got %d", resp.Code)
	}
}

func TestListSearchAndSort(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})
	for _, body := range []string{
		`{"stageName":"Bravo","fullName":"B","age":"30","email":"b@example.com","city":"Austin"}`,
		`{"stageName":"alpha","fullName":"A","age":"22","email":"a@example.com","city":"Boston"}`,
		`{"stageName":"Charlie","fullName":"C","age":"41","email":"c@example.com","city":"austin"}`,
	} {
		if resp := env.do(http.MethodPost, "/api/records", body, true); resp.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d", resp.Code)
		}
	}

	list := decode[[]Record](t, env.do(http.MethodGet, "/api/records?q=austin&sort=stageName", "", true))
	if len(list) != 2 || list[0].StageName != "Bravo" || list[1].StageName != "Charlie" {
		t.Fatalf("unexpected list %+v", list)
	}

	list = decode[[]Record](t, env.do(http.MethodGet, "/api/records?sort=stageName&limit=1", "", true))
	if len(list) != 1 || list[0].StageName != "alpha" {
		t.Fatalf("unexpected list %+v", list)
	}

	if resp := env.do(http.MethodGet, "/api/records?sort=bogus", "", true); resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown sort, got %d", resp.Code)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})
	rec := decode[Record](t, env.do(http.MethodPost, "/api/records", novaJSON, true))

	resp := env.do(http.MethodGet, "/api/records/"+rec.ID, "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	upd := `{"stageName":"DJ Nova","fullName":"Nova R.","age":"26","email":"nova@example.com"}`
	resp = env.do(http.MethodPut, "/api/records/"+rec.ID, upd, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	got := decode[Record](t, resp)
	if got.FullName != "Nova R." || got.State != "" {
		t.Errorf("expected full overwrite, got %+v", got)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt.Time) {
		t.Errorf("createdAt changed: %v -> %v", rec.CreatedAt, got.CreatedAt)
	}

	resp = env.do(http.MethodDelete, "/api/records/"+rec.ID, "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if d := decode[Deleted](t, resp); !d.OK {
		t.Error("expected ok true")
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if resp := env.do(method, "/api/records/"+rec.ID, "", true); resp.Code != http.StatusNotFound {
			t.Errorf("%s after delete: expected 404, got %d", method, resp.Code)
		}
	}
	if resp := env.do(http.MethodPut, "/api/records/missing", upd, true); resp.Code != http.StatusNotFound {
		t.Errorf("PUT missing: expected 404, got %d", resp.Code)
	}
}

func TestUpdateConflict(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})
	env.do(http.MethodPost, "/api/records", novaJSON, true)
	other := decode[Record](t, env.do(http.MethodPost, "/api/records",
		`{"stageName":"Vega","fullName":"V","age":"30","email":"vega@example.com"}`, true))

	resp := env.do(http.MethodPut, "/api/records/"+other.ID, novaJSON, true)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(content)
	} else {
		_ = mw.WriteField("note", "no file here")
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/records/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestImport(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})

	csv := "Stage Name:,Name (First & Last):,Age,Email:\n" +
		"A,Alpha,20,a@example.com\n" +
		"B,Bravo,,b@example.com\n" +
		",Charlie,22,c@example.com\n" +
		"D,Delta,23,d@example.com\n" +
		"E,Echo,24,e@example.com\n"

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, multipartRequest(t, "file", "signup.csv", []byte(csv)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	res := decode[ImportResult](t, resp)
	if !res.OK || res.Created != 3 || res.Updated != 0 || res.Skipped != 2 || len(res.Errors) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	resp = httptest.NewRecorder()
	env.router.ServeHTTP(resp, multipartRequest(t, "file", "signup.csv", []byte(csv)))
	res = decode[ImportResult](t, resp)
	if res.Created != 0 || res.Updated != 3 {
		t.Fatalf("re-import should only update, got %+v", res)
	}
	if !strings.Contains(resp.Body.String(), `"errors":[]`) {
		t.Errorf("expected empty errors array, got %s", resp.Body.String())
	}
}

func TestImportRejections(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})

	for _, tc := range []struct {
		name    string
		req     *http.Request
		contain string
	}{
		{"no file", multipartRequest(t, "", "", nil), "No file uploaded"},
		{"header only", multipartRequest(t, "file", "empty.csv", []byte("Stage Name,Email\n")), "No valid rows found"},
		{"wrong field", multipartRequest(t, "upload", "a.csv", []byte("Stage Name\nx\n")), "No file uploaded"},
		{"no usable rows", multipartRequest(t, "file", "other.csv", []byte("Artist,Contact,Years\nDJ Nova,nova@example.com,25\n")), "No valid rows found"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			env.router.ServeHTTP(resp, tc.req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
			}
			if !strings.Contains(resp.Body.String(), tc.contain) {
				t.Errorf("expected body to contain %q, got %s", tc.contain, resp.Body.String())
			}
		})
	}
}

func TestImportQuotedHeaderWithBOM(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})

	csv := "\uFEFF\"Stage Name:\",\"Name (First & Last):\",\"Age\",\"Email:\"\n" +
		"\"DJ Nova\",\"Nova Reyes\",\"25\",\"nova@example.com\"\n"

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, multipartRequest(t, "file", "form-export.csv", []byte(csv)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	res := decode[ImportResult](t, resp)
	if res.Created != 1 || res.Skipped != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})
	env.do(http.MethodPost, "/api/records", novaJSON, true)

	resp := env.do(http.MethodGet, "/api/records/export.csv", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("unexpected Content-Type %q", ct)
	}
	if cd := resp.Header().Get("Content-Disposition"); cd != `attachment; filename="dj-profiles-export.csv"` {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(resp.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Stage Name,") || !strings.HasPrefix(lines[1], "DJ Nova,") {
		t.Fatalf("unexpected csv %q", resp.Body.String())
	}

	if resp := env.do(http.MethodGet, "/api/records/export.csv", "", false); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestExportXLSX(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})
	env.do(http.MethodPost, "/api/records", novaJSON, true)

	resp := env.do(http.MethodGet, "/api/records/export.xlsx", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != xlsxType {
		t.Errorf("unexpected Content-Type %q", ct)
	}

	f, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Profiles")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "DJ Nova" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t, testToken, Options{})
	env.do(http.MethodPost, "/api/records", novaJSON, true)

	resp := env.do(http.MethodGet, "/api/records/stats", "", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	st := decode[Stats](t, resp)
	if st.Total != 1 || len(st.States) != 1 || st.States[0].Label != "Texas" {
		t.Fatalf("unexpected stats %+v", st)
	}
	if len(st.Experience) != 1 || st.Experience[0].Label != "Not specified" {
		t.Fatalf("unexpected experience buckets %+v", st.Experience)
	}
}
