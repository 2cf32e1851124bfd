// Package extauthz exposes the deprecation agent as an Envoy external
// authorization (envoy.service.auth.v3) gRPC service.
//
// Configure Envoy's ext_authz HTTP filter with a gRPC service pointing at
// the agent's socket. Warn and pass-through decisions allow the request and
// attach the deprecation headers to the response; redirect, block and custom
// decisions are denied with the decision's status, headers and body.
package extauthz
