package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/notesift/internal/noteservice"
	"github.com/starford/notesift/internal/search"
	"github.com/starford/notesift/internal/testutil"
)

// testEnv sets up a temp vault, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (http.Handler, string) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (http.Handler, string) {
	t.Helper()

	root, store := testutil.TestVault(t)
	svc := noteservice.NewService(store, search.NewEngine(root))
	router := NewRouter(svc, NewMetrics(), authEnabled, token, sseHandler)
	return router, root
}

func seed(t *testing.T, root string) {
	t.Helper()
	testutil.WriteFiles(t, root, map[string]string{
		"hello.md":          "---\ntitle: Hello\ntags: [greeting]\n---\n# Hello\nWorld\n",
		"work/plan.md":      "---\ntitle: Plan\ntags: [todo]\n---\nship it\n",
		"work/meet/sync.md": "weekly sync\n",
		"work/raw.txt":      "not a note",
	})
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetNote(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)

	w := get(t, router, "/notes/work/plan.md")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatal(err)
	}
	if note.Path != "work/plan.md" {
		t.Errorf("path = %q", note.Path)
	}
	if note.Title != "Plan" || note.Filename != "plan.md" {
		t.Errorf("title/filename = %q/%q", note.Title, note.Filename)
	}
	if strings.Join(note.Category, "/") != "work" {
		t.Errorf("category = %v", note.Category)
	}
	if !strings.HasPrefix(note.Content, "---\ntitle: Plan") {
		t.Errorf("content must keep the preamble: %q", note.Content)
	}
	if got := w.Header().Get("ETag"); got != `"`+note.Checksum+`"` {
		t.Errorf("etag = %q, checksum = %q", got, note.Checksum)
	}
}

func TestGetNote_EncodedSlash(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)
	if w := get(t, router, "/notes/work%2Fplan.md"); w.Code != http.StatusOK {
		t.Errorf("encoded path = %d, want 200", w.Code)
	}
}

func TestGetNote_NotModified(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)

	first := get(t, router, "/notes/hello.md")
	req := httptest.NewRequest(http.MethodGet, "/notes/hello.md", nil)
	req.Header.Set("If-None-Match", first.Header().Get("ETag"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional get = %d, want 304", w.Code)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)

	for _, target := range []string{"/notes/nope.md", "/notes/work", "/notes/work/raw.txt"} {
		if w := get(t, router, target); w.Code != http.StatusNotFound {
			t.Errorf("%s = %d, want 404", target, w.Code)
		}
	}
}

func TestGetNote_TraversalBlocked(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := get(t, router, "/notes/..%2F..%2Fetc%2Fpasswd.md"); w.Code != http.StatusBadRequest {
		t.Errorf("traversal = %d, want 400", w.Code)
	}
}

func TestRenderNote(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)

	w := get(t, router, "/render/hello.md")
	if w.Code != http.StatusOK {
		t.Fatalf("render status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<h1") || strings.Contains(body, "title: Hello") {
		t.Errorf("unexpected html: %s", body)
	}
}

func TestListNotes(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)

	cases := map[string]int{
		"/notes":                         3,
		"/notes?category=work":           2,
		"/notes?category=work/meet":      1,
		"/notes?tag=todo":                1,
		"/notes?category=work&tag=hello": 0,
	}
	for target, want := range cases {
		w := get(t, router, target)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", target, w.Code)
		}
		var resp NoteListResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Total != want || len(resp.Notes) != want {
			t.Errorf("%s total = %d, want %d", target, resp.Total, want)
		}
	}
}

func TestSearchEndpoint(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)

	w := get(t, router, "/search?q=ship")
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Path != "work/plan.md" || resp.Results[0].Title != "Plan" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchEndpoint_NoMatch(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)

	w := get(t, router, "/search?q=zzz")
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != `{"results":[]}` {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSearchEndpoint_Limit(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)

	var resp SearchResponse
	w := get(t, router, "/search?q=.&limit=2")
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("limited results = %d, want 2", len(resp.Results))
	}
}

func TestSearchInvalidPattern(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := get(t, router, "/search?q=%28%5B"); w.Code != http.StatusBadRequest {
		t.Errorf("invalid pattern = %d, want 400", w.Code)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := get(t, router, "/search"); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)

	w := get(t, router, "/categories")
	if w.Code != http.StatusOK {
		t.Fatalf("categories status = %d", w.Code)
	}
	var tree CategoryNode
	if err := json.Unmarshal(w.Body.Bytes(), &tree); err != nil {
		t.Fatal(err)
	}
	if tree.Name != filepath.Base(root) {
		t.Errorf("root name = %q", tree.Name)
	}
	if tree.Count() != 3 {
		t.Errorf("nodes = %d, want 3", tree.Count())
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)

	w := get(t, router, "/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var report StatsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Total != 3 || len(report.Tags) != 2 || len(report.Categories) != 3 {
		t.Errorf("report = %+v", report)
	}
}

func TestMetricsRecordSearches(t *testing.T) {
	root, store := testutil.TestVault(t)
	seed(t, root)
	metrics := NewMetrics()
	router := NewRouter(noteservice.NewService(store, search.NewEngine(root)), metrics, false, "", nil)

	get(t, router, "/search?q=ship")
	get(t, router, "/search?q=zzz")
	get(t, router, "/search?q=%28")

	srv := httptest.NewServer(metrics.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`notesift_search_requests_total{outcome="matched"} 1`,
		`notesift_search_requests_total{outcome="empty"} 1`,
		`notesift_search_requests_total{outcome="invalid"} 1`,
		`notesift_search_duration_seconds_count 3`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")
	if w := get(t, router, "/notes"); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := get(t, router, "/notes"); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestReadOnly(t *testing.T) {
	router, root := testEnv(t, "")
	seed(t, root)
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/notes/hello.md", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s = %d, want 405", method, w.Code)
		}
	}
}

// SSE endpoint auth tests.

// Minimal SSE handler stub: writes headers and blocks until context done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router, _ := testEnvWithSSE(t, true, "secret", sseStub)

	// No token → 401.
	if w := get(t, router, "/events"); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router, _ := testEnvWithSSE(t, false, "", sseStub)

	// Disabled mode → should not 401. SSE handler will write 200 and block,
	// so we cancel the context after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router, _ := testEnvWithSSE(t, true, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
