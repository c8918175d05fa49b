// Package toolchain implements the build actions on top of external compilers and generators.
package toolchain

import (
	"path/filepath"
	"strconv"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// Option token prefixes understood by the actions.
const (
	OptOptimize   = "OPT"
	OptIncludeDir = "DIR"
	OptDefine     = "DEFINE"
	OptCFlag      = "CFLAG"
	OptLDFlag     = "LDFLAG"
	OptBuilding   = "BUILDING"
	OptPrefix     = "PREFIX"
	OptModule     = "MODULE"
	OptLibrary    = "LIBRARY"
	OptLib        = "LIB"
	OptLibDir     = "LIBDIR"
	OptCompress   = "COMPRESS"

	// OptFlexCaseless makes generated lexers case-insensitive.
	OptFlexCaseless = "FLEXDASHI"
)

// Actions returns an action for every kind that needs one.
func Actions(exec ports.Executor) map[domain.ActionKind]ports.Action {
	c := &Compiler{exec: exec}
	return map[domain.ActionKind]ports.Action{
		domain.KindCompile:       c,
		domain.KindParserGen:     &ParserGenerator{exec: exec, compiler: c},
		domain.KindLexerGen:      &LexerGenerator{exec: exec, compiler: c},
		domain.KindInterfaceGen:  &InterfaceGenerator{exec: exec, compiler: c},
		domain.KindModuleGen:     &ModuleGenerator{exec: exec, compiler: c},
		domain.KindArchive:       &Archiver{exec: exec},
		domain.KindLink:          &Linker{exec: exec},
		domain.KindAssetCompress: &AssetCompressor{},
	}
}

// optimizeFlags maps the OPT level to compiler flags.
func optimizeFlags(opts domain.Options) ([]string, error) {
	v, ok := opts.Value(OptOptimize)
	if !ok {
		return nil, nil
	}
	level, err := strconv.Atoi(v)
	if err != nil {
		return nil, zerr.With(zerr.New("invalid optimisation level"), "option", OptOptimize+":"+v)
	}
	switch {
	case level <= 0:
		return nil, nil
	case level == 1:
		return []string{"-g"}, nil
	case level == 2:
		return []string{"-O1"}, nil
	case level == 3:
		return []string{"-O2"}, nil
	default:
		return []string{"-O2", "-DNDEBUG"}, nil
	}
}

// includeFlags renders DIR: options and extra directories as -I flags.
func includeFlags(opts domain.Options, extra ...string) []string {
	var flags []string
	for _, dir := range append(opts.Values(OptIncludeDir), extra...) {
		flags = append(flags, "-I"+dir)
	}
	return flags
}

// defineFlags renders DEFINE: and BUILDING: options as -D flags.
func defineFlags(opts domain.Options) []string {
	var flags []string
	for _, def := range opts.Values(OptDefine) {
		flags = append(flags, "-D"+def)
	}
	if building, ok := opts.Value(OptBuilding); ok {
		flags = append(flags, "-DBUILDING_"+building)
	}
	return flags
}

// tmpPath returns the project-relative path of an intermediate file.
func tmpPath(name string) string {
	return filepath.Join(domain.DefaultTmpPath(), name)
}

// abs resolves a project-relative path against the request root.
func abs(req domain.ActionRequest, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(req.Root, path)
}

func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

func requireOption(req domain.ActionRequest, prefix string) (string, error) {
	v, ok := req.Options.Value(prefix)
	if !ok || v == "" {
		err := zerr.With(zerr.New("missing required option"), "option", prefix)
		return "", zerr.With(err, "target", req.Output)
	}
	return v, nil
}
