package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON marshals before writing headers so an encoding failure still
// produces a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ProblemDetail is an RFC 7807 body. Extra members are flattened into the
// top-level object, e.g. {"code": "device_unavailable"} or {"retryable": true}.
type ProblemDetail struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
	Extra    map[string]interface{}
}

func (p ProblemDetail) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(p.Extra)+5)
	for k, v := range p.Extra {
		m[k] = v
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}
	return json.Marshal(m)
}

// RespondError writes an RFC 7807 problem.
func RespondError(w http.ResponseWriter, status int, detail string) {
	writeProblem(w, newProblem(status, detail, nil))
}

// RespondErrorWithExtras writes an RFC 7807 problem with extension members.
func RespondErrorWithExtras(w http.ResponseWriter, status int, detail string, extras map[string]interface{}) {
	writeProblem(w, newProblem(status, detail, extras))
}

func newProblem(status int, detail string, extras map[string]interface{}) ProblemDetail {
	return ProblemDetail{
		Type:   problemType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
		Extra:  extras,
	}
}

func writeProblem(w http.ResponseWriter, p ProblemDetail) {
	payload, err := json.Marshal(p)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	w.Write(payload)
}

var problemSections = map[int]string{
	http.StatusBadRequest:            "rfc7231#section-6.5.1",
	http.StatusUnauthorized:          "rfc7235#section-3.1",
	http.StatusForbidden:             "rfc7231#section-6.5.3",
	http.StatusNotFound:              "rfc7231#section-6.5.4",
	http.StatusConflict:              "rfc7231#section-6.5.8",
	http.StatusRequestEntityTooLarge: "rfc7231#section-6.5.11",
	http.StatusInternalServerError:   "rfc7231#section-6.6.1",
	http.StatusBadGateway:            "rfc7231#section-6.6.3",
	http.StatusServiceUnavailable:    "rfc7231#section-6.6.4",
}

func problemType(status int) string {
	if section, ok := problemSections[status]; ok {
		return "https://datatracker.ietf.org/doc/html/" + section
	}
	return "about:blank"
}
