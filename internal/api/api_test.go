package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/launchpad/internal/launcher"
	"github.com/starford/launchpad/internal/models"
	"github.com/starford/launchpad/internal/testutil"
)

// testEnv sets up a temp catalog, uploads dir, audit DB, service, and router.
// An empty password means auth is disabled.
func testEnv(t *testing.T, password string) (*launcher.Service, http.Handler, string) {
	t.Helper()
	store, path := testutil.TestStore(t)
	svc := launcher.NewService(store, testutil.TestSink(t),
		launcher.WithAudit(testutil.TestDB(t)),
		launcher.WithLogger(testutil.Logger()),
	)
	router := NewRouter(svc, password != "", password, nil)
	return svc, router, path
}

func doJSON(t *testing.T, router http.Handler, method, target, body string, auth ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	if len(auth) == 2 {
		req.SetBasicAuth(auth[0], auth[1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return e.Error
}

const validBody = `{"apps":[{"id":"a","title":"A","shortDescription":"s","longDescription":"l","icon":"/i.png","url":"https://x","iconBg":"primary"}]}`

func TestGetConfig_SeedsDefault(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var doc models.AppsDocument
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if len(doc.Apps) != 1 || doc.Apps[0].ID != "docs" {
		t.Errorf("doc = %+v", doc)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestGetConfig_CorruptFileServesEmpty(t *testing.T) {
	_, router, path := testEnv(t, "")
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	_ = os.WriteFile(path, []byte("{oops"), 0o644)

	w := doJSON(t, router, http.MethodGet, "/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"apps":[]}` {
		t.Errorf("body = %s", got)
	}
}

func TestSaveThenGet(t *testing.T) {
	_, router, path := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/admin/save", validBody)
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SaveResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success {
		t.Errorf("success = false")
	}

	w = doJSON(t, router, http.MethodGet, "/config", "")
	var doc models.AppsDocument
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if len(doc.Apps) != 1 || doc.Apps[0].ID != "a" || doc.Apps[0].URL != "https://x" {
		t.Errorf("doc = %+v", doc)
	}

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "\n  \"apps\": [\n") {
		t.Errorf("file not pretty-printed with two spaces:\n%s", raw)
	}
}

func TestSave_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"not json", `nope`, "Invalid data structure"},
		{"missing apps", `{}`, "Invalid data structure"},
		{"apps not array", `{"apps":"x"}`, "Invalid data structure"},
		{"trailing data", `{"apps":[]} trailing`, "Invalid data structure"},
		{"non-object element", `{"apps":[1]}`, "Missing required fields"},
		{"wrong field type", `{"apps":[{"id":5}]}`, "Missing required fields"},
		{"empty title", `{"apps":[{"id":"a","title":"","shortDescription":"s","longDescription":"l","icon":"/i.png","url":"https://x","iconBg":"primary"}]}`, "Missing required fields"},
		{"missing iconBg", `{"apps":[{"id":"a","title":"A","shortDescription":"s","longDescription":"l","icon":"/i.png","url":"https://x"}]}`, "Missing required fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, router, path := testEnv(t, "")
			_ = doJSON(t, router, http.MethodGet, "/config", "")
			before, _ := os.ReadFile(path)

			w := doJSON(t, router, http.MethodPost, "/admin/save", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if got := errorOf(t, w); got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
			after, _ := os.ReadFile(path)
			if string(before) != string(after) {
				t.Error("rejected save modified the backing file")
			}
		})
	}
}

func TestSave_PersistFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	_, router, path := testEnv(t, "")
	_ = doJSON(t, router, http.MethodGet, "/config", "")
	dir := filepath.Dir(path)
	_ = os.Chmod(dir, 0o555)
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	w := doJSON(t, router, http.MethodPost, "/admin/save", validBody)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := errorOf(t, w); got != "Failed to save configuration" {
		t.Errorf("error = %q", got)
	}
}

func TestBasicAuth(t *testing.T) {
	_, router, _ := testEnv(t, "admin123")

	tests := []struct {
		name     string
		user     string
		pass     string
		sendAuth bool
		want     int
	}{
		{"no credentials", "", "", false, http.StatusUnauthorized},
		{"wrong password", "admin", "nope", true, http.StatusUnauthorized},
		{"right password", "admin", "admin123", true, http.StatusOK},
		{"username ignored", "anyone", "admin123", true, http.StatusOK},
		{"empty username", "", "admin123", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.sendAuth {
				w = doJSON(t, router, http.MethodPost, "/admin/save", validBody, tt.user, tt.pass)
			} else {
				w = doJSON(t, router, http.MethodPost, "/admin/save", validBody)
			}
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized {
				if h := w.Header().Get("WWW-Authenticate"); h != `Basic realm="Admin Access"` {
					t.Errorf("WWW-Authenticate = %q", h)
				}
			}
		})
	}
}

func TestBasicAuth_ReadSideIsPublic(t *testing.T) {
	_, router, _ := testEnv(t, "admin123")
	w := doJSON(t, router, http.MethodGet, "/config", "")
	if w.Code != http.StatusOK {
		t.Errorf("public config = %d, want 200", w.Code)
	}
}

func TestHistoryRecordsActor(t *testing.T) {
	_, router, _ := testEnv(t, "pw")

	_ = doJSON(t, router, http.MethodPost, "/admin/save", validBody, "alice", "pw")
	w := doJSON(t, router, http.MethodGet, "/admin/history?limit=5", "", "alice", "pw")
	if w.Code != http.StatusOK {
		t.Fatalf("history = %d", w.Code)
	}
	var h HistoryResponse
	_ = json.Unmarshal(w.Body.Bytes(), &h)
	if len(h.Saves) != 1 || h.Saves[0].Actor != "alice" {
		t.Errorf("saves = %+v", h.Saves)
	}
}

// Upload tests.

func uploadFile(t *testing.T, router http.Handler, filename, appID string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	if appID != "" {
		_ = mw.WriteField("appId", appID)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAndServe(t *testing.T) {
	svc, router, _ := testEnv(t, "")

	w := uploadFile(t, router, "logo.png", "docs", []byte("fake-png-data"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var resp UploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.HasPrefix(resp.Path, "/uploads/docs-") || !strings.HasSuffix(resp.Path, ".png") {
		t.Fatalf("path = %q", resp.Path)
	}

	data, err := os.ReadFile(filepath.Join(svc.Sink().Dir(), filepath.Base(resp.Path)))
	if err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	if string(data) != "fake-png-data" {
		t.Errorf("content mismatch")
	}

	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/uploads/{filename}", h.ServeUpload)
	req := httptest.NewRequest(http.MethodGet, resp.Path, nil)
	sw := httptest.NewRecorder()
	r.ServeHTTP(sw, req)
	if sw.Code != http.StatusOK {
		t.Fatalf("serve = %d", sw.Code)
	}
	if sw.Body.String() != "fake-png-data" {
		t.Errorf("served body = %q", sw.Body.String())
	}
	if sw.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing CSP header on served upload")
	}
}

func TestUpload_RejectsOtherExtensions(t *testing.T) {
	_, router, _ := testEnv(t, "")
	for _, name := range []string{"x.jpg", "x.exe", "noext"} {
		w := uploadFile(t, router, name, "a", []byte("data"))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", name, w.Code)
		}
	}
	w := uploadFile(t, router, "X.SVG", "a", []byte("<svg/>"))
	if w.Code != http.StatusCreated {
		t.Errorf("upper-case .SVG = %d, want 201", w.Code)
	}
}

func TestUpload_MissingFileField(t *testing.T) {
	_, router, _ := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("appId", "a")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestUpload_AuthProtected(t *testing.T) {
	_, router, _ := testEnv(t, "secret")
	w := uploadFile(t, router, "x.png", "a", []byte("data"))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("upload no auth = %d, want 401", w.Code)
	}
}

func TestUpload_WriteFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	svc, router, _ := testEnv(t, "")
	dir := svc.Sink().Dir()
	_ = os.MkdirAll(dir, 0o755)
	_ = os.Chmod(dir, 0o555)
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	w := uploadFile(t, router, "x.png", "a", []byte("data"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if got := errorOf(t, w); got != "Failed to upload file" {
		t.Errorf("error = %q", got)
	}
}

func TestListUploads(t *testing.T) {
	_, router, _ := testEnv(t, "")
	_ = uploadFile(t, router, "a.png", "a", []byte("1"))
	_ = uploadFile(t, router, "b.svg", "b", []byte("<svg/>"))

	w := doJSON(t, router, http.MethodGet, "/admin/uploads", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp UploadListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Files) != 2 {
		t.Errorf("files = %+v", resp.Files)
	}
}

func TestServeUpload_NotFoundAndTraversal(t *testing.T) {
	svc, _, _ := testEnv(t, "")
	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Get("/uploads/{filename}", h.ServeUpload)

	req := httptest.NewRequest(http.MethodGet, "/uploads/nope.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing upload = %d, want 404", w.Code)
	}

	for _, name := range []string{"../apps.json", "..%2Fapps.json", ".hidden"} {
		req := httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}

// SSE route wiring.

func TestEventsRouteMounted(t *testing.T) {
	store, _ := testutil.TestStore(t)
	svc := launcher.NewService(store, testutil.TestSink(t))

	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
	router := NewRouter(svc, true, "pw", sseHandler)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("events = %d, want 200 without credentials", w.Code)
	}
}
