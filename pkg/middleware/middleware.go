// Package middleware applies deprecation decisions to net/http traffic, for
// deployments without a proxy that can call the agent out of process.
package middleware

import (
	"log/slog"
	"net/http"
	stdhttputil "net/http/httputil"
	"net/url"

	"github.com/getmockd/sunsetd/pkg/agent"
	"github.com/getmockd/sunsetd/pkg/httputil"
	"github.com/getmockd/sunsetd/pkg/logging"
)

// RequestIDHeader is read to correlate access log lines with the caller.
const RequestIDHeader = "X-Request-Id"

// Handler evaluates every request with a. Redirect, block and custom
// decisions are answered directly; other requests are passed to next with
// the deprecation headers already set on the response.
func Handler(a *agent.Agent, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := a.Handle(r.Context(), agent.Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			RequestID: r.Header.Get(RequestIDHeader),
		})
		if httputil.WriteDecision(w, d) {
			return
		}
		httputil.SetHeaders(w.Header(), d.Headers)
		next.ServeHTTP(w, r)
	})
}

// NewReverseProxy returns a handler forwarding to upstream through Handler.
func NewReverseProxy(upstream *url.URL, a *agent.Agent, logger *slog.Logger) http.Handler {
	logger = logging.OrNop(logger)

	rp := &stdhttputil.ReverseProxy{
		Rewrite: func(pr *stdhttputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "upstream request failed",
				"method", r.Method, "path", r.URL.Path, "error", err)
			httputil.WriteError(w, http.StatusBadGateway, "bad_gateway", "upstream unavailable")
		},
	}
	return Handler(a, rp)
}
