package module_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/docent/pkg/module"
)

func writeBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}
}

func mustModule(t *testing.T, prefix string, router http.Handler) *module.Module {
	t.Helper()
	m, err := module.New(prefix, router)
	if err != nil {
		t.Fatalf("New(%q) error = %v", prefix, err)
	}
	return m
}

func TestNewPrefixValidation(t *testing.T) {
	tests := []struct {
		prefix  string
		wantErr bool
	}{
		{"/api", false},
		{"/scalar", false},
		{"", true},
		{"/", true},
		{"api", true},
		{"/api/v1", true},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			m, err := module.New(tt.prefix, http.NewServeMux())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && m.Prefix() != tt.prefix {
				t.Errorf("prefix: got %s, want %s", m.Prefix(), tt.prefix)
			}
		})
	}
}

func TestServeStripsPrefix(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"nested", "/api/documents/abc", "/documents/abc"},
		{"root", "/api", "/"},
		{"root slash", "/api/", "/"},
		{"trailing slash", "/api/batches/", "/batches"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received string
			mux := http.NewServeMux()
			mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
				received = r.URL.Path
			})

			original := httptest.NewRequest("GET", tt.path, nil)
			mustModule(t, "/api", mux).Serve(httptest.NewRecorder(), original)

			if received != tt.want {
				t.Errorf("inner path: got %s, want %s", received, tt.want)
			}
			if original.URL.Path != tt.path {
				t.Errorf("original request mutated: %s", original.URL.Path)
			}
		})
	}
}

func TestMiddlewareOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /batches", writeBody("handler"))

	m := mustModule(t, "/api", mux)

	var order []string
	for _, name := range []string{"cors", "logger", "auth"} {
		m.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	m.Serve(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/batches", nil))

	if got := strings.Join(order, ","); got != "cors,logger,auth" {
		t.Errorf("middleware order: got %s", got)
	}
}

func TestRouter(t *testing.T) {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /documents", writeBody("documents"))
	apiMux.HandleFunc("GET /openapi.json", writeBody("spec"))

	router := module.NewRouter()
	if err := router.Mount(mustModule(t, "/api", apiMux)); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	router.HandleNative("GET /healthz", writeBody("ok"))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"module route", "/api/documents", http.StatusOK, "documents"},
		{"trailing slash", "/api/documents/", http.StatusOK, "documents"},
		{"spec", "/api/openapi.json", http.StatusOK, "spec"},
		{"native", "/healthz", http.StatusOK, "ok"},
		{"unknown", "/metrics", http.StatusNotFound, ""},
		{"prefix lookalike", "/apix/documents", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body: got %s, want %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestMountDuplicatePrefix(t *testing.T) {
	router := module.NewRouter()
	first := mustModule(t, "/api", http.NewServeMux())
	second := mustModule(t, "/api", http.NewServeMux())

	if err := router.Mount(first, second); err == nil {
		t.Fatal("expected duplicate prefix error")
	}
}
