package domain

import (
	"slices"
	"strings"
)

// Options is an accumulation of opaque configuration tokens attached to a target.
// Tokens are deduplicated; iteration follows first insertion so command lines stay stable.
// The scheduler never interprets them; actions do.
type Options struct {
	tokens []string
	seen   map[string]struct{}
}

// NewOptions builds an option set from tokens.
func NewOptions(tokens ...string) Options {
	var o Options
	o.Add(tokens...)
	return o
}

// Add merges tokens into the set.
func (o *Options) Add(tokens ...string) {
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if o.seen == nil {
			o.seen = make(map[string]struct{})
		}
		if _, ok := o.seen[tok]; ok {
			continue
		}
		o.seen[tok] = struct{}{}
		o.tokens = append(o.tokens, tok)
	}
}

// Merge adds every token of other.
func (o *Options) Merge(other Options) {
	o.Add(other.tokens...)
}

// Has reports whether tok is present.
func (o Options) Has(tok string) bool {
	_, ok := o.seen[tok]
	return ok
}

// Values returns the values of every "PREFIX:value" token with the given prefix.
func (o Options) Values(prefix string) []string {
	var out []string
	for _, tok := range o.tokens {
		if v, ok := strings.CutPrefix(tok, prefix+":"); ok {
			out = append(out, v)
		}
	}
	return out
}

// Value returns the last value declared for prefix.
func (o Options) Value(prefix string) (string, bool) {
	vals := o.Values(prefix)
	if len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}

// Tokens returns a copy of the tokens in insertion order.
func (o Options) Tokens() []string {
	return slices.Clone(o.tokens)
}

// Len returns the number of distinct tokens.
func (o Options) Len() int {
	return len(o.tokens)
}
