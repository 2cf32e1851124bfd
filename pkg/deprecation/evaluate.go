package deprecation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"
)

// Decision is the outcome of evaluating one request.
type Decision struct {
	// EndpointID is empty when no rule matched.
	EndpointID string
	// Status is meaningful only when EndpointID is set.
	Status EffectiveStatus
	Action Action

	Headers Headers

	RedirectTarget    string
	ReplacementMethod string

	ResponseBody string
	ContentType  string

	// DaysUntilSunset is nil when the rule has no sunset.
	DaysUntilSunset *int
	TrackUsage      bool

	// Fault is set when evaluation panicked. The decision is then a
	// pass-through so the request is not affected.
	Fault error
}

// Matched reports whether a rule matched the request.
func (d Decision) Matched() bool { return d.EndpointID != "" }

// StatusCode is the response status the host should send, or 0 to forward.
func (d Decision) StatusCode() int {
	if d.Action == nil {
		return 0
	}
	return d.Action.StatusCode()
}

type decisionJSON struct {
	EndpointID        string  `json:"endpoint_id,omitempty"`
	Status            string  `json:"status,omitempty"`
	Action            string  `json:"action"`
	StatusCode        int     `json:"status_code,omitempty"`
	Headers           Headers `json:"headers,omitempty"`
	RedirectTarget    string  `json:"redirect_target,omitempty"`
	ReplacementMethod string  `json:"replacement_method,omitempty"`
	ResponseBody      string  `json:"response_body,omitempty"`
	ContentType       string  `json:"content_type,omitempty"`
	DaysUntilSunset   *int    `json:"days_until_sunset,omitempty"`
	TrackUsage        bool    `json:"track_usage"`
	Fault             string  `json:"fault,omitempty"`
}

// MarshalJSON renders the decision for the check command and admin API.
func (d Decision) MarshalJSON() ([]byte, error) {
	out := decisionJSON{
		EndpointID:        d.EndpointID,
		Action:            string(KindPassThrough),
		StatusCode:        d.StatusCode(),
		Headers:           d.Headers,
		RedirectTarget:    d.RedirectTarget,
		ReplacementMethod: d.ReplacementMethod,
		ResponseBody:      d.ResponseBody,
		ContentType:       d.ContentType,
		DaysUntilSunset:   d.DaysUntilSunset,
		TrackUsage:        d.TrackUsage,
	}
	if d.Matched() {
		out.Status = d.Status.String()
	}
	if d.Action != nil {
		out.Action = string(d.Action.Kind())
	}
	if d.Fault != nil {
		out.Fault = d.Fault.Error()
	}

	// Link values contain '<' and '>'; keep them readable.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Evaluate runs the decision pipeline for req against the registry:
// resolve the endpoint, compute its effective status, resolve the action,
// then build headers, redirect target and response body.
//
// Evaluate never fails. A request matching no rule yields a pass-through
// decision. A panic during evaluation is recovered and reported in
// Decision.Fault.
func (r *Registry) Evaluate(req Request) (d Decision) {
	defer func() {
		if p := recover(); p != nil {
			d = Decision{
				EndpointID: d.EndpointID,
				Action:     PassThrough{},
				Fault:      fmt.Errorf("evaluation panic: %v\n%s", p, debug.Stack()),
			}
		}
	}()

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	ep := r.Resolve(req.Method, req.Path)
	if ep == nil {
		return Decision{Action: PassThrough{}}
	}
	rule := &ep.rule

	d.EndpointID = rule.ID
	d.Status = EvaluateLifecycle(rule, now)
	if d.Status == Inactive {
		d.Action = PassThrough{}
		return d
	}

	d.TrackUsage = rule.TrackUsage
	if days, ok := DaysUntilSunset(rule, now); ok {
		d.DaysUntilSunset = &days
	}

	d.Action = ResolveAction(rule, d.Status, r.settings)
	if r.settings.IncludeHeaders {
		d.Headers = BuildHeaders(rule, d.Status, r.settings, now)
	}

	switch a := d.Action.(type) {
	case PassThrough, Warn:
	case Redirect:
		d.RedirectTarget = BuildRedirectTarget(*rule.Replacement, req.Query)
		d.ReplacementMethod = rule.Replacement.Method
	case Block:
		d.ResponseBody = GoneBody(rule)
		d.ContentType = ContentTypeJSON
	case Custom:
		d.ResponseBody = a.Body
		d.ContentType = a.ContentType
	default:
		panic(fmt.Sprintf("deprecation: unhandled action %T", a))
	}

	return d
}
