package text

// Truncate shortens s to at most max bytes, appending an ellipsis marker when
// anything was cut. max <= 0 disables truncation.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
