package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Extra-Chill/astra-web/internal/config"
	"github.com/Extra-Chill/astra-web/internal/files"
	"github.com/Extra-Chill/astra-web/internal/metrics"
	"github.com/Extra-Chill/astra-web/internal/page"
	"github.com/Extra-Chill/astra-web/internal/settings"
)

type testEnv struct {
	server  *Server
	source  *config.LayoutSource
	store   *settings.Store
	dataDir string
}

func newTestEnv(t *testing.T, passwordHash string) *testEnv {
	t.Helper()

	dataDir := t.TempDir()
	store, err := settings.Open(filepath.Join(t.TempDir(), "device.yaml"))
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	source := config.NewLayoutSource(page.Default())

	handlers := NewHandlers(source, dataDir, store, recorder)
	server := NewServer(ServerConfig{
		Addr:              ":0",
		AdminUser:         "admin",
		AdminPasswordHash: passwordHash,
		Metrics:           metrics.HTTPHandler(reg),
	}, handlers)

	return &testEnv{
		server:  server,
		source:  source,
		store:   store,
		dataDir: dataDir,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(hash)
}

func TestFilesHandler(t *testing.T) {
	env := newTestEnv(t, "")
	if err := os.WriteFile(filepath.Join(env.dataDir, "data.csv"), []byte("t,d\n1,2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("serves complete document", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("expected html content type, got %q", ct)
		}

		entries, err := files.List(env.dataDir)
		if err != nil {
			t.Fatal(err)
		}
		want := page.Default().Header() + files.Summary(entries) + files.Table(entries) + page.Default().Footer()
		if rec.Body.String() != want {
			t.Errorf("unexpected body:\n got %q\nwant %q", rec.Body.String(), want)
		}
		if rec.Header().Get("Content-Length") != strconv.Itoa(len(want)) {
			t.Errorf("Content-Length = %q, want %d", rec.Header().Get("Content-Length"), len(want))
		}
	})

	t.Run("escapes file names", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(env.dataDir, "<b>x<b>.csv"), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
		if strings.Contains(rec.Body.String(), "<b>x<b>") {
			t.Error("file name was not escaped")
		}
		if !strings.Contains(rec.Body.String(), "&lt;b&gt;x&lt;b&gt;.csv") {
			t.Error("escaped file name missing")
		}
	})

	t.Run("records metrics", func(t *testing.T) {
		if !strings.Contains(env.scrape(t), `astra_page_renders_total{page="files"} 2`) {
			t.Error("expected two files renders")
		}
	})
}

func TestFilesHandlerStorageUnavailable(t *testing.T) {
	env := newTestEnv(t, "")
	if err := os.RemoveAll(env.dataDir); err != nil {
		t.Fatal(err)
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if !strings.HasSuffix(rec.Body.String(), "Storage unavailable.</p></body></html>") {
		t.Errorf("expected complete error page, got %q", rec.Body.String())
	}
}

func TestOversizePageFailsCleanly(t *testing.T) {
	env := newTestEnv(t, "")
	env.source.Store(page.NewLayout(page.WithMaxSize(len(page.Default().Header()) + 64)))

	for i := 0; i < 5; i++ {
		name := filepath.Join(env.dataDir, strings.Repeat("f", 20)+string(rune('a'+i))+".csv")
		if err := os.WriteFile(name, []byte("1"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<html>") {
		t.Errorf("partial document leaked: %q", rec.Body.String())
	}
	if rec.Body.String() != "page unavailable\n" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	if !strings.Contains(env.scrape(t), `astra_page_failures_total{page="files",reason="too_large"} 1`) {
		t.Error("expected one too_large failure")
	}
}

func TestLayoutSwapAppliesToNextRequest(t *testing.T) {
	env := newTestEnv(t, "")

	env.source.Store(page.NewLayout(page.WithHeading("Buoy 7")))
	rec := env.do(httptest.NewRequest(http.MethodGet, "/upload", nil))

	if !strings.Contains(rec.Body.String(), "<h1>Buoy 7</h1>") {
		t.Error("new heading not rendered")
	}
	if strings.Contains(rec.Body.String(), "<h1>Float Data</h1>") {
		t.Error("old heading still rendered")
	}
}

func TestUploadFormHandler(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/upload", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	want := page.Default().Header() + settings.Form(settings.Defaults(), settings.Notice{}) + page.Default().Footer()
	if rec.Body.String() != want {
		t.Errorf("unexpected body:\n got %q\nwant %q", rec.Body.String(), want)
	}
}

func TestUploadSubmitHandler(t *testing.T) {
	const password = "correct horse"
	env := newTestEnv(t, hashPassword(t, password))

	valid := url.Values{
		settings.FieldDeviceName:     {"Buoy 7"},
		settings.FieldSampleInterval: {"30"},
		settings.FieldTargetDepth:    {"12.5"},
	}

	t.Run("requires credentials", func(t *testing.T) {
		rec := env.do(postForm(valid))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Error("expected WWW-Authenticate header")
		}
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		req := postForm(valid)
		req.SetBasicAuth("admin", "wrong")
		rec := env.do(req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("rejects wrong user", func(t *testing.T) {
		req := postForm(valid)
		req.SetBasicAuth("root", password)
		rec := env.do(req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})

	if got := env.store.Get(); got != settings.Defaults() {
		t.Fatalf("unauthenticated requests changed settings: %+v", got)
	}

	t.Run("invalid values re-render the form", func(t *testing.T) {
		req := postForm(url.Values{settings.FieldSampleInterval: {"soon"}})
		req.SetBasicAuth("admin", password)
		rec := env.do(req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "<p class='rcorners_m'>sample interval must be a whole number of seconds</p>") {
			t.Errorf("expected error notice, got %q", rec.Body.String())
		}
		if env.store.Get() != settings.Defaults() {
			t.Error("invalid submission changed settings")
		}
	})

	t.Run("saves valid settings", func(t *testing.T) {
		req := postForm(valid)
		req.SetBasicAuth("admin", password)
		rec := env.do(req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Settings saved.") {
			t.Error("expected confirmation notice")
		}
		got := env.store.Get()
		if got.DeviceName != "Buoy 7" || got.SampleInterval != 30 || got.TargetDepth != 12.5 {
			t.Errorf("settings not saved: %+v", got)
		}
	})

	t.Run("submitted markup is not echoed", func(t *testing.T) {
		req := postForm(url.Values{settings.FieldNotes: {"<img src=x onerror=alert(1)>pier"}})
		req.SetBasicAuth("admin", password)
		rec := env.do(req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "<img") {
			t.Error("markup echoed back into the page")
		}
	})
}

func TestUploadWithoutPasswordIsOpen(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(postForm(url.Values{settings.FieldDeviceName: {"Open"}}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if env.store.Get().DeviceName != "Open" {
		t.Error("settings not saved")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}

	env.do(httptest.NewRequest(http.MethodGet, "/upload", nil))
	if out := env.scrape(t); !strings.Contains(out, `astra_page_renders_total{page="upload"} 1`) {
		t.Errorf("metrics missing upload render:\n%s", out)
	}
}

func TestNotFoundUsesLayout(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/nope%3Cscript%3E", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, page.Default().Header()) || !strings.HasSuffix(body, page.Default().Footer()) {
		t.Error("404 page not wrapped in layout")
	}
	if strings.Contains(body, "<script>") {
		t.Error("path echoed without escaping")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(httptest.NewRequest(http.MethodDelete, "/upload", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func (e *testEnv) scrape(t *testing.T) string {
	t.Helper()
	rec := e.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestStaticFiles(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		path        string
		contentType string
	}{
		{"/favicon.ico", "image/"},
		{"/robots.txt", "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("GET %s = %d, want 200", tt.path, rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want prefix %q", ct, tt.contentType)
			}
			if rec.Body.Len() == 0 {
				t.Error("empty body")
			}
		})
	}
}
