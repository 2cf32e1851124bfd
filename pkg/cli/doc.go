// Package cli implements the sunsetd command line.
//
// Commands:
//
//   - serve: run the Envoy external authorization service
//   - proxy: run a standalone reverse proxy
//   - validate: check a configuration file
//   - check: print the decision for one request
//   - list: show every endpoint with its current status
//   - print-config: print an example configuration
//   - import-openapi: generate endpoints from deprecated OpenAPI operations
//   - version: print version information
package cli
