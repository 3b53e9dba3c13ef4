package server

import (
	"encoding/json"
	"net/http"
)

const problemBase = "https://fleetdeck.dev/problems/"

// RFC 7807 problem type URIs emitted by the server itself. The settings
// handlers define their own under the same base.
const (
	ProblemTypeNotFound    = problemBase + "not-found"
	ProblemTypeInternal    = problemBase + "internal-error"
	ProblemTypeRateLimited = problemBase + "rate-limited"
	ProblemTypeReadOnly    = problemBase + "read-only"
)

// Problem is an RFC 7807 Problem Details body.
type Problem struct {
	Type     string `json:"type" example:"https://fleetdeck.dev/problems/not-found"`
	Title    string `json:"title" example:"Not Found"`
	Status   int    `json:"status" example:"404"`
	Detail   string `json:"detail,omitempty" example:"no route for /api/v1/vehicles"`
	Instance string `json:"instance,omitempty" example:"/api/v1/vehicles"`
}

// WriteProblem writes p as application/problem+json. An empty Title defaults
// to the status text.
func WriteProblem(w http.ResponseWriter, p Problem) {
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func NotFound(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{Type: ProblemTypeNotFound, Status: http.StatusNotFound, Detail: detail, Instance: instance})
}

func InternalError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{Type: ProblemTypeInternal, Status: http.StatusInternalServerError, Detail: detail, Instance: instance})
}

func RateLimited(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{Type: ProblemTypeRateLimited, Status: http.StatusTooManyRequests, Detail: detail, Instance: instance})
}
