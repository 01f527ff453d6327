// Package ptr provides helpers for the optional fields of API types.
package ptr

// To returns a pointer to a copy of v.
func To[T any](v T) *T { return &v }

// Bool returns a pointer to the given bool value.
func Bool(b bool) *bool { return &b }

// Deref returns the value p points to, or fallback when p is nil.
func Deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
