package fs

import (
	"os"
	"path/filepath"

	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier checks that actions left their outputs behind.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyOutputs reports whether every output exists. Relative outputs are resolved against root.
func (v *Verifier) VerifyOutputs(root string, outputs []string) (bool, error) {
	for _, output := range outputs {
		path := output
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, output)
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, zerr.With(zerr.Wrap(err, "failed to stat output"), "path", path)
		}
	}
	return true, nil
}
