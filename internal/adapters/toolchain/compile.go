package toolchain

import (
	"context"
	"io"
	"path/filepath"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
)

// Compiler compiles one translation unit into an object file.
type Compiler struct {
	exec ports.Executor
}

// Execute compiles the first input into the output.
func (c *Compiler) Execute(ctx context.Context, req domain.ActionRequest, out io.Writer) error {
	return c.compile(ctx, req, req.Output, req.Inputs[0], nil, out)
}

// compile builds obj from src with the target's flags. extraIncludes are
// searched after the DIR: options.
func (c *Compiler) compile(
	ctx context.Context,
	req domain.ActionRequest,
	obj, src string,
	extraIncludes []string,
	out io.Writer,
) error {
	cmd, err := compileCommand(req, obj, src, extraIncludes)
	if err != nil {
		return err
	}
	return c.exec.Run(ctx, cmd, out)
}

func compileCommand(req domain.ActionRequest, obj, src string, extraIncludes []string) (domain.Command, error) {
	tc := req.Toolchain
	name := tc.CXX
	var args []string
	if filepath.Ext(src) == ".c" {
		name = tc.CC
	} else {
		args = append(args, "-ftemplate-depth-30")
	}
	args = append(args, "-fPIC", "-c", "-o", obj)
	args = append(args, includeFlags(req.Options, extraIncludes...)...)
	args = append(args, defineFlags(req.Options)...)

	opt, err := optimizeFlags(req.Options)
	if err != nil {
		return domain.Command{}, err
	}
	args = append(args, opt...)
	args = append(args, tc.CFlags...)
	args = append(args, req.Options.Values(OptCFlag)...)
	args = append(args, src)

	return domain.Command{Name: name, Args: args, Dir: req.Root}, nil
}
