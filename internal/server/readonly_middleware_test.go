package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadOnlyMiddleware(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	handler := ReadOnlyMiddleware(backend)

	tests := []struct {
		name       string
		method     string
		wantStatus int
		wantPass   bool
	}{
		{name: "GET passes through", method: http.MethodGet, wantStatus: http.StatusOK, wantPass: true},
		{name: "HEAD passes through", method: http.MethodHead, wantStatus: http.StatusOK, wantPass: true},
		{name: "OPTIONS passes through", method: http.MethodOptions, wantStatus: http.StatusOK, wantPass: true},
		{name: "POST blocked", method: http.MethodPost, wantStatus: http.StatusMethodNotAllowed},
		{name: "PUT blocked", method: http.MethodPut, wantStatus: http.StatusMethodNotAllowed},
		{name: "DELETE blocked", method: http.MethodDelete, wantStatus: http.StatusMethodNotAllowed},
		{name: "PATCH blocked", method: http.MethodPatch, wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/v1/settings/themes/active", http.NoBody)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}

			body, _ := io.ReadAll(w.Result().Body)
			if tc.wantPass {
				if !strings.Contains(string(body), `"status":"ok"`) {
					t.Errorf("expected backend response, got %q", body)
				}
				return
			}

			if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q, want application/problem+json", ct)
			}
			if allow := w.Header().Get("Allow"); allow != "GET, HEAD, OPTIONS" {
				t.Errorf("Allow = %q", allow)
			}
			var p Problem
			if err := json.Unmarshal(body, &p); err != nil {
				t.Fatalf("decode problem: %v", err)
			}
			if p.Type != ProblemTypeReadOnly {
				t.Errorf("type = %q, want %q", p.Type, ProblemTypeReadOnly)
			}
		})
	}
}
