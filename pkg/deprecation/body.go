package deprecation

import (
	"encoding/json"
	"fmt"
	"time"
)

// ContentTypeJSON is the content type of generated response bodies.
const ContentTypeJSON = "application/json"

type goneBody struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Endpoint      string `json:"endpoint"`
	Sunset        string `json:"sunset,omitempty"`
	Replacement   string `json:"replacement,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

// GoneBody renders the JSON body sent with Block decisions.
func GoneBody(rule *Rule) string {
	body := goneBody{
		Error:         "endpoint_removed",
		Message:       fmt.Sprintf("The endpoint %s has been removed", rule.Path),
		Endpoint:      rule.Path,
		Documentation: rule.DocumentationURL,
	}
	if !rule.SunsetAt.IsZero() {
		body.Sunset = rule.SunsetAt.UTC().Format(time.RFC3339)
	}
	if rule.Replacement != nil && rule.Replacement.Path != "" {
		body.Replacement = rule.Replacement.Path
		body.Message = fmt.Sprintf("The endpoint %s has been removed. Please use %s instead", rule.Path, rule.Replacement.Path)
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		// Only string fields; marshaling cannot fail.
		return `{"error":"endpoint_removed"}`
	}
	return string(data)
}
