// Package httputil holds the HTTP response helpers shared by the admin API
// and the in-process middleware.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/getmockd/sunsetd/pkg/deprecation"
)

// ErrorResponse is the JSON body of every admin API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", deprecation.ContentTypeJSON)
	w.WriteHeader(status)
	if data != nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(data)
	}
}

// WriteError writes an ErrorResponse.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, ErrorResponse{Error: errCode, Message: message})
}

// WriteErrorWithDetails writes an ErrorResponse carrying details, such as
// the list of configuration validation errors.
func WriteErrorWithDetails(w http.ResponseWriter, status int, errCode, message string, details any) {
	WriteJSON(w, status, ErrorResponse{Error: errCode, Message: message, Details: details})
}

// WriteOK writes a 200 OK response with data.
func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteServiceUnavailable writes a 503 Service Unavailable response.
func WriteServiceUnavailable(w http.ResponseWriter, errCode, message string) {
	WriteError(w, http.StatusServiceUnavailable, errCode, message)
}

// SetHeaders copies the decision headers onto h, replacing existing values.
func SetHeaders(h http.Header, headers deprecation.Headers) {
	for _, hdr := range headers {
		h.Set(hdr.Name, hdr.Value)
	}
}

// WriteDecision answers a request that the decision does not forward:
// redirects get a Location header, blocks and custom actions get the
// decision's body. It reports false, writing nothing, for decisions that
// forward the request.
func WriteDecision(w http.ResponseWriter, d deprecation.Decision) bool {
	code := d.StatusCode()
	if code == 0 {
		return false
	}

	SetHeaders(w.Header(), d.Headers)
	if _, ok := d.Action.(deprecation.Redirect); ok {
		w.Header().Set("Location", d.RedirectTarget)
		w.WriteHeader(code)
		return true
	}

	if d.ContentType != "" {
		w.Header().Set("Content-Type", d.ContentType)
	}
	w.WriteHeader(code)
	_, _ = w.Write([]byte(d.ResponseBody))
	return true
}
