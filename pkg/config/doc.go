// Package config loads and validates the sunsetd configuration file.
//
// The file is YAML (or JSON) with three sections:
//   - endpoints: the deprecated endpoint rules, in match order
//   - settings: header names and process-wide policies
//   - metrics: Prometheus exporter options
//
// Loading runs in stages. ${VAR} and ${VAR:-default} references are
// expanded, the document is checked against an embedded JSON Schema,
// decoded with unknown fields rejected, extended with the endpoints of any
// included files, and finally validated semantically:
//
//	f, err := config.Load("sunsetd.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	reg, err := f.Registry()
//
// Validation reports every problem at once through *ValidationResult.
//
// A minimal file:
//
//	endpoints:
//	  - id: legacy-users-api
//	    path: /api/v1/*
//	    sunset_at: 2025-06-01T00:00:00Z
//	    replacement:
//	      path: /api/v2/users
package config
