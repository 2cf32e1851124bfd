package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPI extensions read by ImportOpenAPI.
const (
	ExtSunset      = "x-sunset"
	ExtReplacement = "x-replacement"
)

// ImportOptions control ImportOpenAPI.
type ImportOptions struct {
	// SunsetAt is used for operations without an x-sunset extension.
	SunsetAt string
	// DocumentationURL is used for operations without externalDocs.
	DocumentationURL string
	// Action is the action type of generated endpoints. Defaults to warn.
	Action string
	// Validate runs the OpenAPI document validator first.
	Validate bool
}

// ImportOpenAPIFile reads an OpenAPI 3 document and generates one endpoint
// per operation marked deprecated.
func ImportOpenAPIFile(path string, opts ImportOptions) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI document: %w", err)
	}
	return ImportOpenAPI(data, opts)
}

// ImportOpenAPI generates endpoints from the deprecated operations of an
// OpenAPI 3 document. Path templates such as {id} become "?*", which
// matches exactly one non-empty segment. Endpoints are ordered by path, then method.
func ImportOpenAPI(data []byte, opts ImportOptions) (*File, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	if opts.Validate {
		if err := doc.Validate(context.Background()); err != nil {
			return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
		}
	}

	f := &File{}
	if doc.Paths == nil {
		return f, nil
	}

	items := doc.Paths.Map()
	paths := make([]string, 0, len(items))
	for p := range items {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	used := map[string]bool{}
	for _, p := range paths {
		ops := items[p].Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		slices.Sort(methods)

		for _, method := range methods {
			op := ops[method]
			if !op.Deprecated {
				continue
			}
			ep := EndpointConfig{
				ID:               uniqueID(operationID(op, method, p), used),
				Path:             templateToGlob(p),
				Methods:          []string{method},
				SunsetAt:         stringExtension(op.Extensions, ExtSunset, opts.SunsetAt),
				DocumentationURL: opts.DocumentationURL,
			}
			if op.ExternalDocs != nil && op.ExternalDocs.URL != "" {
				ep.DocumentationURL = op.ExternalDocs.URL
			}
			if repl := stringExtension(op.Extensions, ExtReplacement, ""); repl != "" {
				ep.Replacement = &ReplacementConfig{Path: repl}
			}
			if opts.Action != "" && opts.Action != "warn" {
				ep.Action = &ActionConfig{Type: opts.Action}
			}
			f.Endpoints = append(f.Endpoints, ep)
		}
	}
	return f, nil
}

func operationID(op *openapi3.Operation, method, path string) string {
	if op.OperationID != "" {
		return slug(op.OperationID)
	}
	return slug(method + " " + path)
}

func uniqueID(id string, used map[string]bool) string {
	candidate := id
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	used[candidate] = true
	return candidate
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// templateToGlob rewrites OpenAPI path templates into segment wildcards:
// /users/{id}/posts becomes /users/?*/posts.
func templateToGlob(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			parts[i] = "?*"
		}
	}
	return strings.Join(parts, "/")
}

func stringExtension(ext map[string]any, key, def string) string {
	if v, ok := ext[key].(string); ok && v != "" {
		return v
	}
	return def
}
