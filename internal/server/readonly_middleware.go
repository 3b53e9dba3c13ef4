package server

import "net/http"

// ReadOnlyMiddleware serves wall-display deployments: settings can be read
// but not changed. Only GET, HEAD and OPTIONS reach the handler; every other
// method gets 405. WebSocket upgrades are GETs and keep working.
func ReadOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD, OPTIONS")
			WriteProblem(w, Problem{
				Type:     ProblemTypeReadOnly,
				Title:    "Method Not Allowed",
				Status:   http.StatusMethodNotAllowed,
				Detail:   "read-only mode: settings cannot be changed",
				Instance: r.URL.Path,
			})
		}
	})
}
