package ports

import "go.trai.ch/bake/internal/core/domain"

// SignatureStore holds the build records of the previous successful builds.
// It is loaded once when opened and written once by Save.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type SignatureStore interface {
	// Get returns the record for an output path.
	Get(output string) (domain.BuildRecord, bool)

	// Put replaces the record for record.Output in memory.
	Put(record domain.BuildRecord)

	// Delete forgets the record for an output path.
	Delete(output string)

	// Generation is the generation new records are stamped with.
	Generation() uint64

	// Save writes the whole store atomically. It is a no-op when nothing changed.
	Save() error

	// Path returns the file backing the store.
	Path() string
}

// StoreOpener opens the signature store backing a project.
type StoreOpener interface {
	// Open loads the store at path. A missing or unreadable file yields an empty store.
	Open(path string) (SignatureStore, error)
}
