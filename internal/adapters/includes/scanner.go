// Package includes discovers the project headers a C or C++ source depends on.
package includes

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.DependencyScanner = (*Scanner)(nil)

// Only quoted includes name project files; angle-bracket includes are system headers.
var includeLine = regexp.MustCompile(`^\s*#\s*include\s*"([^"]+)"`)

// Scanner follows quoted #include directives transitively.
// The include lines of each file are memoised until the file's size or
// modification time changes, so shared headers are read once per edit.
// Resolution against the search path is redone on every scan.
type Scanner struct {
	mu   sync.RWMutex
	memo map[string]memoEntry
}

type memoEntry struct {
	size    int64
	modTime int64
	names   []string
}

// NewScanner creates an empty Scanner.
func NewScanner() *Scanner {
	return &Scanner{memo: make(map[string]memoEntry)}
}

// Scan returns every file source includes, directly or not, in discovery order.
// Each include is looked up next to the including file first and then in dirs.
// When no file matches, a candidate for which generated reports true is kept:
// it names a header another target produces. generated receives paths relative
// to root and may be nil. Other unresolved includes are skipped; they are
// system headers.
func (s *Scanner) Scan(root, source string, dirs []string, generated func(string) bool) ([]string, error) {
	absDirs := make([]string, len(dirs))
	for i, d := range dirs {
		absDirs[i] = absolute(root, d)
	}

	start := absolute(root, source)
	seen := map[string]bool{start: true}
	queue := []string{start}
	var found []string

	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]

		names, err := s.includes(file)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			inc, onDisk, ok := resolve(root, name, filepath.Dir(file), absDirs, generated)
			if !ok || seen[inc] {
				continue
			}
			seen[inc] = true
			found = append(found, relative(root, inc))
			// A header that is not generated yet has nothing to follow.
			if onDisk {
				queue = append(queue, inc)
			}
		}
	}
	return found, nil
}

// ScanAll scans many sources concurrently. The result is indexed like sources.
func (s *Scanner) ScanAll(
	root string,
	sources []string,
	dirs [][]string,
	limit int,
	generated func(string) bool,
) ([][]string, error) {
	out := make([][]string, len(sources))
	g := new(errgroup.Group)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range sources {
		g.Go(func() error {
			deps, err := s.Scan(root, src, dirs[i], generated)
			if err != nil {
				return err
			}
			out[i] = deps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// includes returns the quoted include names of file, from the memo while the file is unchanged.
func (s *Scanner) includes(file string) ([]string, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIncludeScanFailed.Error()), "file", file)
	}
	size, modTime := info.Size(), info.ModTime().UnixNano()

	s.mu.RLock()
	cached, ok := s.memo[file]
	s.mu.RUnlock()
	if ok && cached.size == size && cached.modTime == modTime {
		return cached.names, nil
	}

	names, err := readIncludes(file)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.memo[file] = memoEntry{size: size, modTime: modTime, names: names}
	s.mu.Unlock()
	return names, nil
}

func readIncludes(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIncludeScanFailed.Error()), "file", file)
	}
	defer func() { _ = f.Close() }()

	var names []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if m := includeLine.FindSubmatch(sc.Bytes()); m != nil {
			names = append(names, string(m[1]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIncludeScanFailed.Error()), "file", file)
	}
	return names, nil
}

// resolve finds the file an include names. onDisk is false for a generated header that does not exist yet.
func resolve(root, name, dir string, dirs []string, generated func(string) bool) (path string, onDisk, ok bool) {
	var candidates []string
	if filepath.IsAbs(name) {
		candidates = []string{filepath.Clean(name)}
	} else {
		for _, d := range append([]string{dir}, dirs...) {
			candidates = append(candidates, filepath.Join(d, name))
		}
	}

	for _, p := range candidates {
		if isFile(p) {
			return p, true, true
		}
	}
	if generated != nil {
		for _, p := range candidates {
			if generated(relative(root, p)) {
				return p, false, true
			}
		}
	}
	return "", false, false
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func absolute(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func relative(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}
