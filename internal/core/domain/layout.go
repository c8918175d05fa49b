package domain

import "path/filepath"

const (
	// BakeDirName is the name of the internal state directory.
	BakeDirName = ".bake"

	// SignatureFileName is the name of the persisted signature store.
	SignatureFileName = "signatures.json"

	// TmpDirName holds intermediate files produced by generator actions.
	TmpDirName = "tmp"

	// BakeFileName is the name of the build description.
	BakeFileName = "Bakefile.yaml"

	// AltBakeFileName is accepted when BakeFileName is absent.
	AltBakeFileName = "Bakefile.yml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// StoreFormatVersion is bumped whenever the signature store encoding changes.
	StoreFormatVersion = 1
)

// DefaultStorePath returns the default path of the signature store.
// It joins .bake and signatures.json.
func DefaultStorePath() string {
	return filepath.Join(BakeDirName, SignatureFileName)
}

// DefaultTmpPath returns the directory for intermediate generated sources.
func DefaultTmpPath() string {
	return filepath.Join(BakeDirName, TmpDirName)
}
