package deprecation

// BuildRedirectTarget returns the redirect location for a replacement.
//
// When PreserveQuery is set and query is non-empty, query is appended after
// a '?' exactly as received. It is not re-encoded or merged with any query
// already present in the replacement path.
func BuildRedirectTarget(rep Replacement, query string) string {
	if !rep.PreserveQuery || query == "" {
		return rep.Path
	}
	return rep.Path + "?" + query
}
