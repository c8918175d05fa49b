package domain

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// ActionKind identifies which build action produces a target's output.
// The set is closed: every target is classified into exactly one kind when the graph is frozen.
type ActionKind uint8

const (
	// KindUnknown is the zero value; a frozen graph never contains it.
	KindUnknown ActionKind = iota
	// KindPhony marks a dependency-only target. Dispatching it does nothing.
	KindPhony
	// KindCompile compiles one translation unit into an object file.
	KindCompile
	// KindParserGen generates a parser from a grammar and compiles it.
	KindParserGen
	// KindLexerGen generates a lexer from a scanner description and compiles it.
	KindLexerGen
	// KindInterfaceGen generates an interface database from headers.
	KindInterfaceGen
	// KindModuleGen generates module glue from interface databases and compiles it.
	KindModuleGen
	// KindArchive bundles object files into a static archive.
	KindArchive
	// KindLink links objects and archives into a shared library or executable.
	KindLink
	// KindAssetCompress copies an asset and compresses it.
	KindAssetCompress
)

// OptDependencyOnly marks a target as phony regardless of its name.
const OptDependencyOnly = "DEPENDENCYONLY"

var kindNames = [...]string{
	KindUnknown:       "unknown",
	KindPhony:         "phony",
	KindCompile:       "compile",
	KindParserGen:     "parser",
	KindLexerGen:      "lexer",
	KindInterfaceGen:  "interface",
	KindModuleGen:     "module",
	KindArchive:       "archive",
	KindLink:          "link",
	KindAssetCompress: "asset",
}

// ActionKinds lists every classifiable kind in declaration order.
func ActionKinds() []ActionKind {
	return []ActionKind{
		KindPhony, KindCompile, KindParserGen, KindLexerGen, KindInterfaceGen,
		KindModuleGen, KindArchive, KindLink, KindAssetCompress,
	}
}

// String returns the kind's name as used in Bakefiles.
func (k ActionKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// Aggregates reports whether the action combines already-built objects.
// Aggregating actions always run once dispatched.
func (k ActionKind) Aggregates() bool {
	return k == KindArchive || k == KindLink
}

// ParseActionKind maps a kind name back to its ActionKind.
func ParseActionKind(s string) (ActionKind, error) {
	for i, name := range kindNames {
		if i == int(KindUnknown) {
			continue
		}
		if strings.EqualFold(name, s) {
			return ActionKind(i), nil
		}
	}
	return KindUnknown, zerr.With(ErrUnknownActionKind, "kind", s)
}

var objectSources = map[string]ActionKind{
	".c":   KindCompile,
	".cc":  KindCompile,
	".cpp": KindCompile,
	".cxx": KindCompile,
	".mm":  KindCompile,
	".y":   KindParserGen,
	".yxx": KindParserGen,
	".l":   KindLexerGen,
	".lxx": KindLexerGen,
	".in":  KindModuleGen,
}

// Classify picks the action kind for a target from its output name, its first input and its options.
func Classify(name, firstInput string, opts Options) (ActionKind, error) {
	if opts.Has(OptDependencyOnly) {
		return KindPhony, nil
	}

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".a", ".lib":
		return KindArchive, nil
	case ".so", ".dll", ".dylib", ".exe", ".pyd":
		return KindLink, nil
	case ".pz":
		return KindAssetCompress, nil
	case ".in":
		return KindInterfaceGen, nil
	case ".o", ".obj":
		if kind, ok := objectSources[strings.ToLower(filepath.Ext(firstInput))]; ok {
			return kind, nil
		}
		return KindUnknown, zerr.With(zerr.With(ErrUnknownActionKind, "target", name), "input", firstInput)
	}

	return KindUnknown, zerr.With(ErrUnknownActionKind, "target", name)
}
