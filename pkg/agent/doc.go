// Package agent holds the deprecation registry that is in service and
// applies it to requests arriving from a transport.
//
// Reloads build a complete new registry off to the side and publish it with
// a single atomic store, so in-flight requests keep evaluating against the
// snapshot they started with. A failed reload leaves the previous snapshot
// in place.
package agent
