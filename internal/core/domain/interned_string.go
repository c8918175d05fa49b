package domain

import "unique"

// InternedString wraps a unique.Handle[string].
// Target names and input paths repeat heavily across a build graph; interning them makes
// equality a handle comparison and keeps one copy of each path in memory.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString interns s.
func NewInternedString(s string) InternedString {
	return InternedString{
		h: unique.Make(s),
	}
}

// NewInternedStrings interns every element of ss, preserving order.
func NewInternedStrings(ss []string) []InternedString {
	if len(ss) == 0 {
		return nil
	}
	out := make([]InternedString, len(ss))
	for i, s := range ss {
		out[i] = NewInternedString(s)
	}
	return out
}

// Strings returns the string values of is, preserving order.
func Strings(is []InternedString) []string {
	if len(is) == 0 {
		return nil
	}
	out := make([]string, len(is))
	for i, s := range is {
		out[i] = s.String()
	}
	return out
}

// String returns the underlying string value.
func (is InternedString) String() string {
	if is.IsZero() {
		return ""
	}
	return is.h.Value()
}

// IsZero reports whether the value was never assigned.
func (is InternedString) IsZero() bool {
	var zero unique.Handle[string]
	return is.h == zero
}

// Value returns the underlying unique.Handle[string].
func (is InternedString) Value() unique.Handle[string] {
	return is.h
}

// MarshalText implements encoding.TextMarshaler.
func (is InternedString) MarshalText() ([]byte, error) {
	return []byte(is.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (is *InternedString) UnmarshalText(text []byte) error {
	is.h = unique.Make(string(text))
	return nil
}
