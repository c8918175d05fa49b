package fs

import (
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver implements the InputResolver interface using filepath.Glob.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveInputs expands glob patterns relative to root and keeps plain paths verbatim.
// Matches of one pattern are sorted; the overall order follows the patterns and
// duplicates keep their first position, so the first input stays first.
func (r *Resolver) ResolveInputs(inputs []string, root string) ([]string, error) {
	seen := make(map[string]struct{}, len(inputs))
	result := make([]string, 0, len(inputs))
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}

	for _, input := range inputs {
		if !isGlob(input) {
			add(filepath.Clean(input))
			continue
		}

		pattern := input
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, input)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob path"), "pattern", input)
		}
		if len(matches) == 0 {
			return nil, zerr.With(domain.ErrInputResolutionFailed, "pattern", input)
		}

		slices.Sort(matches)
		for _, match := range matches {
			if !filepath.IsAbs(input) {
				if rel, err := filepath.Rel(root, match); err == nil {
					match = rel
				}
			}
			add(match)
		}
	}

	return result, nil
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[")
}
