// Package deprecation decides what happens to requests for deprecated
// endpoints.
//
// A Registry is built once from a list of Rules and Settings and is then
// read-only. For each request, Registry.Evaluate picks the first rule that
// matches the method and path, computes the rule's effective status at the
// request time, resolves an Action and renders the response headers:
//
//	Deprecation: @1704067200
//	Sunset: Sun, 01 Jun 2025 00:00:00 GMT
//	Link: <https://docs.example.com/v1>; rel="deprecation", </api/v2/users>; rel="successor-version"
//	X-Deprecation-Notice: This endpoint (/api/v1/users) is deprecated and will be removed on 2025-06-01. Please migrate to /api/v2/users.
//
// Once a rule's sunset has passed, the Settings.PastSunsetAction policy
// replaces the rule's own action.
//
// Evaluation does no I/O and keeps no state, so a single Registry can serve
// any number of goroutines. Reloading means building a new Registry and
// swapping the pointer.
package deprecation
