package util

// Filter keeps the elements of s for which keep returns true, reusing the
// backing array.
func Filter[T any](s []T, keep func(T) bool) []T {
	filtered := s[:0]
	for _, e := range s {
		if keep(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
