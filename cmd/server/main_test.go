package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestWithCORS_Options(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/generate-test", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodPost)
	h := withCORS(r, []string{"*"})

	tests := []struct {
		name    string
		path    string
		headers map[string]string
	}{
		{"bare options", "/generate-test", nil},
		{"unknown path", "/anything", nil},
		{"preflight", "/generate-test", map[string]string{
			"Origin":                        "https://app.example.com",
			"Access-Control-Request-Method": http.MethodPost,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", rec.Code)
			}
			if rec.Body.Len() != 0 {
				t.Errorf("expected empty body, got %q", rec.Body.String())
			}
		})
	}
}

func TestWithCORS_PassesThrough(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/generate-test", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodPost)
	h := withCORS(r, []string{"*"})

	req := httptest.NewRequest(http.MethodPost, "/generate-test", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected the route handler to run, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
