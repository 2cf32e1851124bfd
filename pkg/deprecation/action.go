package deprecation

import (
	"fmt"
	"net/http"
	"strings"
)

// ActionKind names an action variant.
type ActionKind string

const (
	KindPassThrough ActionKind = "pass_through"
	KindWarn        ActionKind = "warn"
	KindRedirect    ActionKind = "redirect"
	KindBlock       ActionKind = "block"
	KindCustom      ActionKind = "custom"
)

// Default status codes.
const (
	DefaultRedirectCode           = http.StatusPermanentRedirect
	DefaultBlockCode              = http.StatusGone
	DefaultPastSunsetRedirectCode = http.StatusMovedPermanently
	DefaultCustomContentType      = "application/json"
)

// Action is what happens to a request that matched a rule. It is a closed
// set of variants: Warn, Redirect, Block, Custom, and (as a resolved action
// only) PassThrough. Code switching on an Action must handle every variant.
type Action interface {
	// Kind returns the variant name.
	Kind() ActionKind
	// StatusCode returns the response status the host should send, or 0 when
	// the request is forwarded upstream.
	StatusCode() int

	isAction()
}

// PassThrough forwards the request untouched.
type PassThrough struct{}

// Warn forwards the request and attaches deprecation headers.
type Warn struct{}

// Redirect answers with a redirect to the replacement endpoint.
type Redirect struct {
	Code int
}

// Block answers with an error response instead of forwarding.
type Block struct {
	Code int
}

// Custom answers with a configured response.
type Custom struct {
	Code        int
	Body        string
	ContentType string
}

func (PassThrough) Kind() ActionKind { return KindPassThrough }
func (Warn) Kind() ActionKind        { return KindWarn }
func (Redirect) Kind() ActionKind    { return KindRedirect }
func (Block) Kind() ActionKind       { return KindBlock }
func (Custom) Kind() ActionKind      { return KindCustom }

func (PassThrough) StatusCode() int { return 0 }
func (Warn) StatusCode() int        { return 0 }
func (a Redirect) StatusCode() int  { return a.Code }
func (a Block) StatusCode() int     { return a.Code }
func (a Custom) StatusCode() int    { return a.Code }

func (PassThrough) isAction() {}
func (Warn) isAction()        {}
func (Redirect) isAction()    {}
func (Block) isAction()       {}
func (Custom) isAction()      {}

func (PassThrough) String() string { return "pass_through" }
func (Warn) String() string        { return "warn" }
func (a Redirect) String() string  { return fmt.Sprintf("redirect(%d)", a.Code) }
func (a Block) String() string     { return fmt.Sprintf("block(%d)", a.Code) }
func (a Custom) String() string    { return fmt.Sprintf("custom(%d)", a.Code) }

// NewAction builds a configured action from its type name. A zero code
// selects the variant default. PassThrough cannot be configured.
func NewAction(kind string, code int, body, contentType string) (Action, error) {
	switch ActionKind(strings.ToLower(strings.TrimSpace(kind))) {
	case "", KindWarn:
		return Warn{}, nil
	case KindRedirect:
		if code == 0 {
			code = DefaultRedirectCode
		}
		if code < 300 || code > 399 {
			return nil, fmt.Errorf("%w: redirect status %d is not 3xx", ErrInvalidStatusCode, code)
		}
		return Redirect{Code: code}, nil
	case KindBlock:
		if code == 0 {
			code = DefaultBlockCode
		}
		if code < 400 || code > 599 {
			return nil, fmt.Errorf("%w: block status %d is not 4xx or 5xx", ErrInvalidStatusCode, code)
		}
		return Block{Code: code}, nil
	case KindCustom:
		if code < 100 || code > 599 {
			return nil, fmt.Errorf("%w: custom status %d out of range", ErrInvalidStatusCode, code)
		}
		if contentType == "" {
			contentType = DefaultCustomContentType
		}
		return Custom{Code: code, Body: body, ContentType: contentType}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
}
