package ports

import "go.trai.ch/bake/internal/core/domain"

// Fingerprinter computes file signatures.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type Fingerprinter interface {
	// Fingerprint returns the signature of the file at path.
	// ok is false when the file does not exist.
	Fingerprint(path string, algo domain.SignatureAlgorithm) (sig domain.Signature, ok bool, err error)
}
