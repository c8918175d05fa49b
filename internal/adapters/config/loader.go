// Package config provides the Bakefile loader for bake.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/bake/internal/adapters/fs" //nolint:depguard // signature algorithm names
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// SupportedVersion is the only Bakefile schema version understood.
const SupportedVersion = "1"

// IncludeScanner finds the headers of many sources at once.
type IncludeScanner interface {
	ScanAll(root string, sources []string, dirs [][]string, limit int, generated func(string) bool) ([][]string, error)
}

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger   ports.Logger
	Resolver ports.InputResolver
	Scanner  IncludeScanner
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger, resolver ports.InputResolver, scanner IncludeScanner) *Loader {
	return &Loader{Logger: logger, Resolver: resolver, Scanner: scanner}
}

// Load reads the Bakefile at path, or the nearest one at or above cwd when path is empty,
// declares its targets in file order and freezes the graph.
func (l *Loader) Load(cwd, path string) (*domain.Project, error) {
	configPath, err := findConfiguration(cwd, path)
	if err != nil {
		return nil, err
	}

	var bakefile Bakefile
	if err := readAndUnmarshalYAML(configPath, &bakefile); err != nil {
		return nil, zerr.With(err, "file", configPath)
	}
	if bakefile.Version != "" && bakefile.Version != SupportedVersion {
		return nil, zerr.With(domain.ErrUnsupportedVersion, "version", bakefile.Version)
	}

	project, err := newProject(configPath, &bakefile)
	if err != nil {
		return nil, err
	}

	if err := l.declareTargets(project.Context, bakefile.Targets); err != nil {
		return nil, err
	}
	if project.Context.Toolchain.ScanIncludes {
		if err := l.declareIncludes(project); err != nil {
			return nil, err
		}
	}
	if err := project.Context.Graph.Freeze(); err != nil {
		return nil, err
	}
	return project, nil
}

func findConfiguration(cwd, path string) (string, error) {
	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", zerr.With(domain.ErrConfigNotFound, "file", path)
		}
		return path, nil
	}

	currentDir := cwd
	for {
		for _, name := range []string{domain.BakeFileName, domain.AltBakeFileName} {
			candidate := filepath.Join(currentDir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func newProject(configPath string, b *Bakefile) (*domain.Project, error) {
	root := resolveRoot(configPath, b.Root)

	jobs := runtime.NumCPU()
	if b.Jobs != nil {
		jobs = *b.Jobs
	}
	if jobs < 0 {
		return nil, zerr.With(domain.ErrInvalidJobs, "jobs", jobs)
	}

	algo, err := fs.ParseAlgorithm(b.Signatures)
	if err != nil {
		return nil, err
	}

	store := b.Store
	if store == "" {
		store = domain.DefaultStorePath()
	}
	if !filepath.IsAbs(store) {
		store = filepath.Join(root, store)
	}

	bc := domain.NewBuildContext(root)
	applyToolchain(&bc.Toolchain, b.Toolchain)

	return &domain.Project{
		Path:       configPath,
		Jobs:       jobs,
		StorePath:  store,
		Signatures: algo,
		Context:    bc,
	}, nil
}

func applyToolchain(tc *domain.Toolchain, dto ToolchainDTO) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&tc.CC, dto.CC)
	override(&tc.CXX, dto.CXX)
	override(&tc.AR, dto.AR)
	override(&tc.Bison, dto.Bison)
	override(&tc.Flex, dto.Flex)
	override(&tc.Interrogate, dto.Interrogate)
	override(&tc.InterrogateModule, dto.InterrogateModule)
	tc.CFlags = append(tc.CFlags, dto.CFlags...)
	tc.LDFlags = append(tc.LDFlags, dto.LDFlags...)
	tc.ScanIncludes = dto.ScanIncludes
}

func (l *Loader) declareTargets(bc *domain.BuildContext, targets []TargetDTO) error {
	for i, dto := range targets {
		inputs, err := l.Resolver.ResolveInputs(dto.Inputs, bc.Root)
		if err != nil {
			return zerr.With(zerr.With(err, "target", dto.Name), "index", i)
		}
		altInputs, err := l.Resolver.ResolveInputs(dto.AltInputs, bc.Root)
		if err != nil {
			return zerr.With(zerr.With(err, "target", dto.Name), "index", i)
		}
		dependsOn, err := l.Resolver.ResolveInputs(dto.DependsOn, bc.Root)
		if err != nil {
			return zerr.With(zerr.With(err, "target", dto.Name), "index", i)
		}

		if err := bc.Graph.Declare(domain.Declaration{
			Name:      filepath.Clean(dto.Name),
			Inputs:    inputs,
			AltInputs: altInputs,
			DependsOn: dependsOn,
			Options:   dto.Options,
			Kind:      dto.Kind,
		}); err != nil {
			return zerr.With(err, "index", i)
		}
	}
	return nil
}

// declareIncludes adds the headers of every compile target's source to its DependsOn.
// Generated sources are skipped; they do not exist before their target runs.
// A header that is itself a declared target is kept even before it exists, so
// the compile waits for the target producing it.
func (l *Loader) declareIncludes(p *domain.Project) error {
	bc := p.Context
	var (
		names   []string
		sources []string
		dirs    [][]string
	)
	for t := range bc.Graph.Targets() {
		if len(t.Inputs) == 0 || !compiles(t) {
			continue
		}
		if bc.Graph.IsTarget(t.Inputs[0]) {
			continue
		}
		src := t.Inputs[0].String()
		if _, err := os.Stat(filepath.Join(bc.Root, src)); err != nil {
			bc.Warn("includes of %s not scanned: source %s does not exist", t.Output(), src)
			continue
		}
		names = append(names, t.Output())
		sources = append(sources, src)
		dirs = append(dirs, t.Options.Values("DIR"))
	}

	generated := func(path string) bool {
		return bc.Graph.IsTarget(domain.NewInternedString(path))
	}
	found, err := l.Scanner.ScanAll(bc.Root, sources, dirs, p.Jobs, generated)
	if err != nil {
		return errors.Join(domain.ErrIncludeScanFailed, err)
	}

	for i, deps := range found {
		if len(deps) == 0 {
			continue
		}
		if err := bc.Graph.Declare(domain.Declaration{Name: names[i], DependsOn: deps}); err != nil {
			return err
		}
	}
	if n := len(sources); n > 0 {
		l.Logger.Info(fmt.Sprintf("scanned includes of %d sources", n))
	}
	return nil
}

func compiles(t *domain.Target) bool {
	kind, err := t.ResolveKind()
	return err == nil && kind == domain.KindCompile
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

// readAndUnmarshalYAML reads a YAML file and decodes it strictly into target.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is validated by caller
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(configFile))
	dec.KnownFields(true)
	if parseErr := dec.Decode(target); parseErr != nil && !errors.Is(parseErr, io.EOF) {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}
	return nil
}
