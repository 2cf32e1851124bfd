package config

import _ "embed"

//go:embed example.yaml
var exampleYAML string

// Example returns an annotated example configuration.
func Example() string { return exampleYAML }
