package fs

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
	"lukechampine.com/blake3"
)

var _ ports.Fingerprinter = (*Fingerprinter)(nil)

// Fingerprinter computes file signatures.
// Content digests are cached by path, size, modification time and algorithm, so an
// unchanged file is read once per process even across repeated builds in watch mode.
type Fingerprinter struct {
	walker *Walker

	mu    sync.RWMutex
	cache map[digestKey]string
}

type digestKey struct {
	path    string
	size    int64
	modTime int64
	algo    domain.SignatureAlgorithm
}

// NewFingerprinter creates a new Fingerprinter.
func NewFingerprinter(walker *Walker) *Fingerprinter {
	return &Fingerprinter{
		walker: walker,
		cache:  make(map[digestKey]string),
	}
}

// Fingerprint returns the signature of the file or directory at path.
// A directory's signature covers every file below it.
func (f *Fingerprinter) Fingerprint(path string, algo domain.SignatureAlgorithm) (domain.Signature, bool, error) {
	if algo == "" {
		algo = domain.SignatureXXHash
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Signature{}, false, nil
		}
		return domain.Signature{}, false, zerr.With(zerr.Wrap(err, domain.ErrFingerprintFailed.Error()), "path", path)
	}

	if info.IsDir() {
		sig, err := f.fingerprintDir(path, algo)
		return sig, err == nil, err
	}

	sig := domain.Signature{Size: info.Size(), ModTime: info.ModTime().UnixNano()}
	if algo == domain.SignatureStat {
		return sig, true, nil
	}

	digest, err := f.digest(path, sig, algo)
	if err != nil {
		return domain.Signature{}, false, err
	}
	sig.Digest = digest
	return sig, true, nil
}

func (f *Fingerprinter) digest(path string, sig domain.Signature, algo domain.SignatureAlgorithm) (string, error) {
	key := digestKey{path: path, size: sig.Size, modTime: sig.ModTime, algo: algo}

	f.mu.RLock()
	cached, ok := f.cache[key]
	f.mu.RUnlock()
	if ok {
		return cached, nil
	}

	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	if err := hashFile(path, h); err != nil {
		return "", err
	}
	digest := hex.EncodeToString(h.Sum(nil))

	f.mu.Lock()
	f.cache[key] = digest
	f.mu.Unlock()
	return digest, nil
}

// fingerprintDir folds the relative path and content digest of every file below root.
func (f *Fingerprinter) fingerprintDir(root string, algo domain.SignatureAlgorithm) (domain.Signature, error) {
	h, err := newHash(algo)
	if err != nil {
		return domain.Signature{}, err
	}

	var sig domain.Signature
	for path := range f.walker.WalkFiles(root, nil) {
		info, err := os.Stat(path)
		if err != nil {
			return domain.Signature{}, zerr.With(zerr.Wrap(err, domain.ErrFingerprintFailed.Error()), "path", path)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		sig.Size += info.Size()
		sig.ModTime = max(sig.ModTime, info.ModTime().UnixNano())

		_, _ = h.Write([]byte(filepath.ToSlash(rel)))
		_, _ = h.Write([]byte{0})
		if algo == domain.SignatureStat {
			_ = binary.Write(h, binary.LittleEndian, info.Size())
			_ = binary.Write(h, binary.LittleEndian, info.ModTime().UnixNano())
			continue
		}
		digest, err := f.digest(path, domain.Signature{Size: info.Size(), ModTime: info.ModTime().UnixNano()}, algo)
		if err != nil {
			return domain.Signature{}, err
		}
		_, _ = h.Write([]byte(digest))
		_, _ = h.Write([]byte{0})
	}

	sig.Digest = hex.EncodeToString(h.Sum(nil))
	return sig, nil
}

func newHash(algo domain.SignatureAlgorithm) (hash.Hash, error) {
	switch algo {
	case domain.SignatureXXHash, domain.SignatureStat:
		return xxhash.New(), nil
	case domain.SignatureBlake3:
		return blake3.New(32, nil), nil
	default:
		return nil, zerr.With(domain.ErrUnknownSignatureAlgorithm, "algorithm", string(algo))
	}
}

func hashFile(path string, h io.Writer) error {
	f, err := os.Open(path) //nolint:gosec // Path comes from the build graph
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	if _, err := io.Copy(h, f); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	return nil
}

// ParseAlgorithm validates a signature algorithm name. Empty selects xxhash.
func ParseAlgorithm(name string) (domain.SignatureAlgorithm, error) {
	switch algo := domain.SignatureAlgorithm(name); algo {
	case "":
		return domain.SignatureXXHash, nil
	case domain.SignatureXXHash, domain.SignatureBlake3, domain.SignatureStat:
		return algo, nil
	default:
		return "", zerr.With(domain.ErrUnknownSignatureAlgorithm, "algorithm", fmt.Sprintf("%q", name))
	}
}
