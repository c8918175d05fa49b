package toolchain_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/adapters/toolchain"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// recorder captures every command an action runs.
type recorder struct {
	cmds []domain.Command
}

func newExecutor(t *testing.T, rec *recorder) *mocks.MockExecutor {
	t.Helper()
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockExecutor(ctrl)
	exec.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cmd domain.Command, _ io.Writer) error {
			rec.cmds = append(rec.cmds, cmd)
			return nil
		}).AnyTimes()
	return exec
}

func request(t *testing.T, output string, inputs []string, opts ...string) domain.ActionRequest {
	t.Helper()
	return domain.ActionRequest{
		Output:    output,
		Inputs:    inputs,
		Options:   domain.NewOptions(opts...),
		Root:      t.TempDir(),
		Toolchain: domain.DefaultToolchain(),
	}
}

func TestActions_CoverEveryKind(t *testing.T) {
	actions := toolchain.Actions(mocks.NewMockExecutor(gomock.NewController(t)))
	for _, kind := range domain.ActionKinds() {
		if kind == domain.KindPhony {
			continue
		}
		assert.Contains(t, actions, kind, kind.String())
	}
}

func TestCompiler_C(t *testing.T) {
	rec := &recorder{}
	actions := toolchain.Actions(newExecutor(t, rec))
	req := request(t, "built/a.o", []string{"src/a.c"}, "DIR:src", "DEFINE:FOO=1", "OPT:1")

	require.NoError(t, actions[domain.KindCompile].Execute(t.Context(), req, io.Discard))

	require.Len(t, rec.cmds, 1)
	assert.Equal(t, "cc", rec.cmds[0].Name)
	assert.Equal(t, []string{"-fPIC", "-c", "-o", "built/a.o", "-Isrc", "-DFOO=1", "-g", "src/a.c"}, rec.cmds[0].Args)
	assert.Equal(t, req.Root, rec.cmds[0].Dir)
}

func TestCompiler_CXX(t *testing.T) {
	rec := &recorder{}
	actions := toolchain.Actions(newExecutor(t, rec))
	req := request(t, "built/b.o", []string{"src/b.cxx"}, "OPT:4", "BUILDING:PANDA", "CFLAG:-Wall")
	req.Toolchain.CFlags = []string{"-pipe"}

	require.NoError(t, actions[domain.KindCompile].Execute(t.Context(), req, io.Discard))

	require.Len(t, rec.cmds, 1)
	assert.Equal(t, "c++", rec.cmds[0].Name)
	assert.Equal(t, []string{
		"-ftemplate-depth-30", "-fPIC", "-c", "-o", "built/b.o",
		"-DBUILDING_PANDA", "-O2", "-DNDEBUG", "-pipe", "-Wall", "src/b.cxx",
	}, rec.cmds[0].Args)
}

func TestCompiler_InvalidOptimisation(t *testing.T) {
	rec := &recorder{}
	actions := toolchain.Actions(newExecutor(t, rec))
	req := request(t, "built/a.o", []string{"src/a.c"}, "OPT:fast")

	err := actions[domain.KindCompile].Execute(t.Context(), req, io.Discard)

	require.ErrorContains(t, err, "invalid optimisation level")
	assert.Empty(t, rec.cmds)
}

func TestParserGenerator(t *testing.T) {
	rec := &recorder{}
	actions := toolchain.Actions(newExecutor(t, rec))
	req := request(t, "built/parser.o", []string{"src/parser.yxx"}, "PREFIX:cpp")

	require.NoError(t, actions[domain.KindParserGen].Execute(t.Context(), req, io.Discard))

	require.Len(t, rec.cmds, 2)
	assert.Equal(t, "bison", rec.cmds[0].Name)
	assert.Equal(t, []string{"-y", "-d", "-o", ".bake/tmp/built/parser.cxx", "-p", "cpp", "src/parser.yxx"}, rec.cmds[0].Args)
	assert.Equal(t, "c++", rec.cmds[1].Name)
	assert.Contains(t, rec.cmds[1].Args, "-I.bake/tmp/built")
	assert.Equal(t, ".bake/tmp/built/parser.cxx", rec.cmds[1].Args[len(rec.cmds[1].Args)-1])
	assert.DirExists(t, req.Root+"/.bake/tmp/built")
}

func TestLexerGenerator(t *testing.T) {
	rec := &recorder{}
	actions := toolchain.Actions(newExecutor(t, rec))
	req := request(t, "built/lexer.o", []string{"src/lexer.lxx"}, "PREFIX:cpp", toolchain.OptFlexCaseless)

	require.NoError(t, actions[domain.KindLexerGen].Execute(t.Context(), req, io.Discard))

	require.Len(t, rec.cmds, 2)
	assert.Equal(t, "flex", rec.cmds[0].Name)
	assert.Equal(t, []string{"-i", "-Pcpp", "-o.bake/tmp/built/lexer.cxx", "src/lexer.lxx"}, rec.cmds[0].Args)
	assert.Equal(t, "c++", rec.cmds[1].Name)
}

func TestParserGenerator_SameGrammarNameInTwoDirectories(t *testing.T) {
	rec := &recorder{}
	actions := toolchain.Actions(newExecutor(t, rec))
	first := request(t, "built/a/grammar.o", []string{"src/a/grammar.yxx"})
	second := request(t, "built/b/grammar.o", []string{"src/b/grammar.yxx"})

	require.NoError(t, actions[domain.KindParserGen].Execute(t.Context(), first, io.Discard))
	require.NoError(t, actions[domain.KindParserGen].Execute(t.Context(), second, io.Discard))

	require.Len(t, rec.cmds, 4)
	assert.Equal(t, ".bake/tmp/built/a/grammar.cxx", rec.cmds[0].Args[3])
	assert.Equal(t, ".bake/tmp/built/b/grammar.cxx", rec.cmds[2].Args[3])
	assert.Contains(t, rec.cmds[3].Args, "-I.bake/tmp/built/b")
	assert.NotContains(t, rec.cmds[3].Args, "-I.bake/tmp/built/a")
}

func TestGenerator_ToolFailureStopsCompile(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockExecutor(ctrl)
	boom := errors.New("bison exploded")
	exec.EXPECT().Run(gomock.Any(), gomock.Cond(func(cmd domain.Command) bool { return cmd.Name == "bison" }), gomock.Any()).
		Return(boom)

	actions := toolchain.Actions(exec)
	req := request(t, "built/parser.o", []string{"src/parser.y"})

	err := actions[domain.KindParserGen].Execute(t.Context(), req, io.Discard)
	require.ErrorIs(t, err, boom)
}

func TestInterfaceGenerator(t *testing.T) {
	rec := &recorder{}
	actions := toolchain.Actions(newExecutor(t, rec))
	req := request(t, "built/libexpress.in",
		[]string{"src/express/a.h", "src/express/b.h"},
		"MODULE:core", "LIBRARY:libexpress", "DIR:src/dtool")

	require.NoError(t, actions[domain.KindInterfaceGen].Execute(t.Context(), req, io.Discard))

	require.Len(t, rec.cmds, 2)
	igate := rec.cmds[0]
	assert.Equal(t, "interrogate", igate.Name)
	assert.Equal(t, []string{"-srcdir", "src/express", "-Isrc/express"}, igate.Args[:3])
	assert.Contains(t, igate.Args, "-Isrc/dtool")
	assert.Subset(t, igate.Args, []string{"-oc", ".bake/tmp/built/libexpress_igate.cxx", "-od", "built/libexpress.in"})
	assert.Equal(t, []string{"-module", "core", "-library", "libexpress", "a.h", "b.h"}, igate.Args[len(igate.Args)-6:])

	compile := rec.cmds[1]
	assert.Equal(t, "c++", compile.Name)
	assert.Subset(t, compile.Args, []string{"-o", "built/libexpress_igate.o", ".bake/tmp/built/libexpress_igate.cxx"})
}

func TestInterfaceGenerator_RequiresModule(t *testing.T) {
	rec := &recorder{}
	actions := toolchain.Actions(newExecutor(t, rec))
	req := request(t, "built/libexpress.in", []string{"src/a.h"}, "LIBRARY:libexpress")

	err := actions[domain.KindInterfaceGen].Execute(t.Context(), req, io.Discard)

	require.ErrorContains(t, err, "missing required option")
	assert.Empty(t, rec.cmds)
}

func TestModuleGenerator(t *testing.T) {
	rec := &recorder{}
	actions := toolchain.Actions(newExecutor(t, rec))
	req := request(t, "built/core_module.o",
		[]string{"built/libexpress.in", "built/libputil.in"},
		"MODULE:core", "LIBRARY:core")

	require.NoError(t, actions[domain.KindModuleGen].Execute(t.Context(), req, io.Discard))

	require.Len(t, rec.cmds, 2)
	assert.Equal(t, "interrogate_module", rec.cmds[0].Name)
	assert.Equal(t, []string{
		"-oc", "built/core_module.cxx", "-module", "core", "-library", "core", "-python-native",
		"built/libexpress.in", "built/libputil.in",
	}, rec.cmds[0].Args)
	assert.Subset(t, rec.cmds[1].Args, []string{"-o", "built/core_module.o", "built/core_module.cxx"})
}

func TestArchiver(t *testing.T) {
	rec := &recorder{}
	actions := toolchain.Actions(newExecutor(t, rec))
	req := request(t, "built/libx.a", []string{"a.o", "b.o"})

	require.NoError(t, actions[domain.KindArchive].Execute(t.Context(), req, io.Discard))

	require.Len(t, rec.cmds, 1)
	assert.Equal(t, "ar", rec.cmds[0].Name)
	assert.Equal(t, []string{"rcs", "built/libx.a", "a.o", "b.o"}, rec.cmds[0].Args)
}

func TestLinker(t *testing.T) {
	tests := []struct {
		name   string
		output string
		inputs []string
		opts   []string
		want   []string
	}{
		{
			name:   "shared library",
			output: "built/lib/libpanda.so",
			inputs: []string{"a.o", "built/lib/libdtool.so"},
			opts:   []string{"LIBDIR:/opt/lib", "LIB:z"},
			want: []string{
				"-shared", "-o", "built/lib/libpanda.so", "a.o",
				"-Lbuilt/lib", "-ldtool", "-L/opt/lib", "-lz", "-lpthread",
			},
		},
		{
			name:   "executable",
			output: "built/bin/pview.exe",
			inputs: []string{"main.o", "libx.a"},
			want:   []string{"-o", "built/bin/pview.exe", "main.o", "libx.a", "-lpthread"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			actions := toolchain.Actions(newExecutor(t, rec))
			req := request(t, tt.output, tt.inputs, tt.opts...)
			req.Toolchain.LDFlags = []string{"-lpthread"}

			require.NoError(t, actions[domain.KindLink].Execute(t.Context(), req, io.Discard))

			require.Len(t, rec.cmds, 1)
			assert.Equal(t, "c++", rec.cmds[0].Name)
			assert.Equal(t, tt.want, rec.cmds[0].Args)
		})
	}
}

func TestExecute_OutputIsStreamed(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockExecutor(ctrl)
	exec.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.Command, out io.Writer) error {
			_, err := io.WriteString(out, "warning: unused variable\n")
			return err
		})

	var buf bytes.Buffer
	req := request(t, "a.o", []string{"a.c"})
	require.NoError(t, toolchain.Actions(exec)[domain.KindCompile].Execute(t.Context(), req, &buf))
	assert.Equal(t, "warning: unused variable\n", buf.String())
}
