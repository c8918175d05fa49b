package toolchain

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// generatedSource names the intermediate source a generator writes for output.
// The output's path is mirrored below the tmp directory, so two targets built
// from grammars with the same base name never share a file.
func generatedSource(req domain.ActionRequest, suffix string) (string, error) {
	gen := tmpPath(trimExt(req.Output) + suffix)
	if err := os.MkdirAll(abs(req, filepath.Dir(gen)), domain.DirPerm); err != nil {
		return "", zerr.Wrap(err, "failed to create intermediate directory")
	}
	return gen, nil
}

// ParserGenerator runs bison on a grammar and compiles the generated parser.
type ParserGenerator struct {
	exec     ports.Executor
	compiler *Compiler
}

// Execute generates <tmp>/<output>.cxx with its header next to it and compiles it into the output.
func (g *ParserGenerator) Execute(ctx context.Context, req domain.ActionRequest, out io.Writer) error {
	gen, err := generatedSource(req, ".cxx")
	if err != nil {
		return err
	}
	src := req.Inputs[0]

	args := []string{"-y", "-d", "-o", gen}
	if prefix, ok := req.Options.Value(OptPrefix); ok {
		args = append(args, "-p", prefix)
	}
	args = append(args, src)

	if err := g.exec.Run(ctx, domain.Command{Name: req.Toolchain.Bison, Args: args, Dir: req.Root}, out); err != nil {
		return err
	}
	return g.compiler.compile(ctx, req, req.Output, gen, []string{filepath.Dir(gen)}, out)
}

// LexerGenerator runs flex on a scanner description and compiles the generated lexer.
type LexerGenerator struct {
	exec     ports.Executor
	compiler *Compiler
}

// Execute generates <tmp>/<output>.cxx and compiles it into the output.
func (g *LexerGenerator) Execute(ctx context.Context, req domain.ActionRequest, out io.Writer) error {
	gen, err := generatedSource(req, ".cxx")
	if err != nil {
		return err
	}
	src := req.Inputs[0]

	var args []string
	if req.Options.Has(OptFlexCaseless) {
		args = append(args, "-i")
	}
	if prefix, ok := req.Options.Value(OptPrefix); ok {
		args = append(args, "-P"+prefix)
	}
	args = append(args, "-o"+gen, src)

	if err := g.exec.Run(ctx, domain.Command{Name: req.Toolchain.Flex, Args: args, Dir: req.Root}, out); err != nil {
		return err
	}
	return g.compiler.compile(ctx, req, req.Output, gen, []string{filepath.Dir(gen)}, out)
}

// InterfaceGenerator runs interrogate over headers, writing the interface
// database to the output and compiling the generated glue into <output>_igate.o.
type InterfaceGenerator struct {
	exec     ports.Executor
	compiler *Compiler
}

// Execute generates the interface database for the inputs.
func (g *InterfaceGenerator) Execute(ctx context.Context, req domain.ActionRequest, out io.Writer) error {
	module, err := requireOption(req, OptModule)
	if err != nil {
		return err
	}
	library, err := requireOption(req, OptLibrary)
	if err != nil {
		return err
	}
	glue, err := generatedSource(req, "_igate.cxx")
	if err != nil {
		return err
	}

	base := trimExt(req.Output)
	srcDir := filepath.Dir(req.Inputs[0])

	args := []string{"-srcdir", srcDir, "-I" + srcDir, "-DCPPPARSER", "-D__cplusplus", "-D__STDC__=1"}
	args = append(args, includeFlags(req.Options)...)
	args = append(args, defineFlags(req.Options)...)
	args = append(args,
		"-oc", glue, "-od", req.Output,
		"-fnames", "-string", "-refcount", "-assert", "-python-native",
		"-module", module, "-library", library,
	)
	for _, in := range req.Inputs {
		rel, err := filepath.Rel(srcDir, in)
		if err != nil {
			rel = in
		}
		args = append(args, rel)
	}

	cmd := domain.Command{Name: req.Toolchain.Interrogate, Args: args, Dir: req.Root}
	if err := g.exec.Run(ctx, cmd, out); err != nil {
		return err
	}
	return g.compiler.compile(ctx, req, base+"_igate.o", glue, nil, out)
}

// ModuleGenerator runs interrogate_module over interface databases and compiles the module glue.
type ModuleGenerator struct {
	exec     ports.Executor
	compiler *Compiler
}

// Execute generates <output>.cxx from the inputs and compiles it into the output.
func (g *ModuleGenerator) Execute(ctx context.Context, req domain.ActionRequest, out io.Writer) error {
	module, err := requireOption(req, OptModule)
	if err != nil {
		return err
	}
	library, err := requireOption(req, OptLibrary)
	if err != nil {
		return err
	}

	glue := trimExt(req.Output) + ".cxx"
	args := []string{"-oc", glue, "-module", module, "-library", library, "-python-native"}
	args = append(args, req.Inputs...)

	cmd := domain.Command{Name: req.Toolchain.InterrogateModule, Args: args, Dir: req.Root}
	if err := g.exec.Run(ctx, cmd, out); err != nil {
		return err
	}
	return g.compiler.compile(ctx, req, req.Output, glue, nil, out)
}
