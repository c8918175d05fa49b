package toolchain

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
)

// Archiver bundles object files into a static archive.
type Archiver struct {
	exec ports.Executor
}

// Execute runs ar over the inputs. The dispatcher removes any previous archive first.
func (a *Archiver) Execute(ctx context.Context, req domain.ActionRequest, out io.Writer) error {
	args := append([]string{"rcs", req.Output}, req.Inputs...)
	return a.exec.Run(ctx, domain.Command{Name: req.Toolchain.AR, Args: args, Dir: req.Root}, out)
}

// Linker links objects and libraries into a shared library or an executable.
type Linker struct {
	exec ports.Executor
}

// Execute links the inputs. Outputs other than .exe are shared libraries.
func (l *Linker) Execute(ctx context.Context, req domain.ActionRequest, out io.Writer) error {
	return l.exec.Run(ctx, linkCommand(req), out)
}

func linkCommand(req domain.ActionRequest) domain.Command {
	tc := req.Toolchain
	var args []string
	if filepath.Ext(req.Output) != ".exe" {
		args = append(args, "-shared")
	}
	args = append(args, "-o", req.Output)

	for _, in := range req.Inputs {
		base := filepath.Base(in)
		if strings.HasPrefix(base, "lib") && filepath.Ext(base) == ".so" {
			args = append(args, "-L"+filepath.Dir(in), "-l"+strings.TrimSuffix(strings.TrimPrefix(base, "lib"), ".so"))
			continue
		}
		args = append(args, in)
	}
	for _, dir := range req.Options.Values(OptLibDir) {
		args = append(args, "-L"+dir)
	}
	for _, lib := range req.Options.Values(OptLib) {
		args = append(args, "-l"+lib)
	}
	args = append(args, tc.LDFlags...)
	args = append(args, req.Options.Values(OptLDFlag)...)

	return domain.Command{Name: tc.CXX, Args: args, Dir: req.Root}
}
