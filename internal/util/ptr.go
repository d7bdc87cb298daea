package util

// Ptr returns a pointer to the given value.
// This is a generic helper for creating pointers to literals.
func Ptr[T any](v T) *T {
	return &v
}

// NilIfEmpty returns nil for "" so the value encodes as JSON null.
func NilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return Ptr(s)
}
