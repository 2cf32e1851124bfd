package deprecation

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// noticeDateLayout is the date format used in generated notices.
const noticeDateLayout = "2006-01-02"

// BuildHeaders renders the deprecation response headers for rule.
//
// The order is fixed: Deprecation, Sunset, Link, notice, then the rule's
// extra headers sorted by name. The result depends only on its arguments, so
// repeated calls yield identical values. Inactive rules get no headers.
func BuildHeaders(rule *Rule, status EffectiveStatus, settings Settings, now time.Time) Headers {
	if status == Inactive {
		return nil
	}
	settings = settings.withDefaults()

	headers := make(Headers, 0, 4+len(rule.Headers))

	// Deprecation: @<unix seconds> (draft-ietf-httpapi-deprecation-header)
	since := rule.DeprecatedAt
	if since.IsZero() {
		since = now
	}
	headers = append(headers, Header{
		Name:  settings.DeprecationHeader,
		Value: "@" + strconv.FormatInt(since.Unix(), 10),
	})

	// Sunset: HTTP-date (RFC 8594)
	if !rule.SunsetAt.IsZero() {
		headers = append(headers, Header{
			Name:  settings.SunsetHeader,
			Value: FormatHTTPDate(rule.SunsetAt),
		})
	}

	if link := linkValue(rule); link != "" {
		headers = append(headers, Header{Name: settings.LinkHeader, Value: link})
	}

	headers = append(headers, Header{Name: settings.NoticeHeader, Value: Notice(rule)})

	if len(rule.Headers) > 0 {
		names := make([]string, 0, len(rule.Headers))
		for name := range rule.Headers {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			headers = append(headers, Header{Name: name, Value: rule.Headers[name]})
		}
	}

	return headers
}

// FormatHTTPDate formats t as an RFC 7231 IMF-fixdate.
func FormatHTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// ParseHTTPDate parses an IMF-fixdate, falling back to RFC 3339.
func ParseHTTPDate(s string) (time.Time, error) {
	if t, err := http.ParseTime(s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return t.UTC(), nil
}

func linkValue(rule *Rule) string {
	var links []string
	if rule.DocumentationURL != "" {
		links = append(links, fmt.Sprintf("<%s>; rel=\"deprecation\"", rule.DocumentationURL))
	}
	if rule.Replacement != nil && rule.Replacement.Path != "" {
		links = append(links, fmt.Sprintf("<%s>; rel=\"successor-version\"", rule.Replacement.Path))
	}
	return strings.Join(links, ", ")
}

// Notice returns the human-readable deprecation notice for rule: the
// configured message, or a sentence built from the path, sunset date and
// replacement.
func Notice(rule *Rule) string {
	if rule.Message != "" {
		return rule.Message
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This endpoint (%s) is deprecated", rule.Path)
	if !rule.SunsetAt.IsZero() {
		fmt.Fprintf(&b, " and will be removed on %s", rule.SunsetAt.UTC().Format(noticeDateLayout))
	}
	b.WriteString(".")
	if rule.Replacement != nil && rule.Replacement.Path != "" {
		fmt.Fprintf(&b, " Please migrate to %s.", rule.Replacement.Path)
	}
	return b.String()
}
