package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// requestPathLabels gathers the request counter and returns the set of path
// label values it currently carries.
func requestPathLabels(t *testing.T) map[string]bool {
	t.Helper()
	families, err := Registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	paths := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "survey_service_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] = true
				}
			}
		}
	}
	return paths
}

func TestMiddleware_PathLabelUsesRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Middleware)
	router.Get("/surveys/{surveyID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/surveys/0f0e7f62-1111-2222-3333-444455556666", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}

	paths := requestPathLabels(t)
	if !paths["/surveys/{surveyID}"] {
		t.Fatalf("expected route pattern label, got %v", paths)
	}
	if paths["/surveys/0f0e7f62-1111-2222-3333-444455556666"] {
		t.Fatalf("raw url leaked into path label: %v", paths)
	}
}

func TestMiddleware_UnmatchedRequestsShareOneLabel(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Middleware)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// A scan of distinct bogus paths must collapse into one label value.
	for _, target := range []string{"/admin.php", "/wp-login.php", "/.env", "/surveys/../etc"} {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
		if recorder.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, recorder.Code)
		}
	}

	paths := requestPathLabels(t)
	if !paths[unmatchedPath] {
		t.Fatalf("expected %q label for unmatched requests, got %v", unmatchedPath, paths)
	}
	for _, raw := range []string{"/admin.php", "/wp-login.php", "/.env"} {
		if paths[raw] {
			t.Fatalf("raw scan path %q leaked into labels: %v", raw, paths)
		}
	}
}
