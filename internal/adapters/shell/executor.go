// Package shell runs external tools for build actions.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/creack/pty"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/bake/internal/core/ports"
	"go.trai.ch/zerr"
)

// tailLines is how much of a failing command's output is attached to its error.
const tailLines = 20

var _ ports.Executor = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithPTY runs commands on a pseudo-terminal, so compilers keep their coloured
// diagnostics when bake itself writes to a terminal.
func WithPTY(enabled bool) Option {
	return func(e *Executor) {
		e.pty = enabled
	}
}

// Executor implements ports.Executor using os/exec.
type Executor struct {
	pty bool
}

// NewExecutor creates a new Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes cmd and waits for it. Its combined output is streamed to out.
// A failing command's error carries the exit code, the command line and the
// last lines it printed.
func (e *Executor) Run(ctx context.Context, cmd domain.Command, out io.Writer) error {
	if cmd.Name == "" {
		return nil
	}
	if out == nil {
		out = io.Discard
	}

	env := resolveEnvironment(os.Environ(), cmd.Env)

	executable := cmd.Name
	if !filepath.IsAbs(executable) && !strings.ContainsRune(executable, filepath.Separator) {
		lp, err := lookPath(executable, env)
		if err != nil {
			return zerr.With(domain.ErrToolNotFound, "tool", cmd.Name)
		}
		executable = lp
	}

	c := exec.CommandContext(ctx, executable, cmd.Args...) //nolint:gosec // Command is assembled by build actions
	if len(c.Args) > 0 {
		c.Args[0] = cmd.Name
	}
	c.Dir = cmd.Dir
	c.Env = env

	tail := &tailWriter{max: tailLines}
	w := io.MultiWriter(out, tail)

	var err error
	if e.pty {
		err = runPTY(c, w)
	} else {
		c.Stdout = w
		c.Stderr = w
		err = c.Run()
	}
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	wrapped := zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "exit_code", exitCode)
	wrapped = zerr.With(wrapped, "command", cmd.String())
	if output := tail.String(); output != "" {
		wrapped = zerr.With(wrapped, "output", output)
	}
	return wrapped
}

// runPTY starts c on a pseudo-terminal and copies everything it prints to w.
func runPTY(c *exec.Cmd, w io.Writer) error {
	ptmx, err := pty.Start(c)
	if err != nil {
		return zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Reading the master fails with EIO once the child side closes.
		_, _ = io.Copy(w, ptmx)
	}()

	err = c.Wait()
	<-ioDone
	_ = ptmx.Close()
	return err
}

// tailWriter keeps the last max complete lines written to it. It is safe for
// concurrent use because os/exec copies stdout and stderr on separate goroutines.
type tailWriter struct {
	mu    sync.Mutex
	max   int
	lines []string
	buf   []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.push(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *tailWriter) push(line string) {
	// PTYs may introduce \r.
	w.lines = append(w.lines, strings.TrimSuffix(line, "\r"))
	if len(w.lines) > w.max {
		w.lines = w.lines[len(w.lines)-w.max:]
	}
}

func (w *tailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.push(string(w.buf))
		w.buf = nil
	}
	return strings.Join(w.lines, "\n")
}

// resolveEnvironment layers the command's "KEY=VALUE" overrides over the process environment.
func resolveEnvironment(sysEnv, overrides []string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	order := make([]string, 0, len(sysEnv)+len(overrides))
	for _, entry := range append(sysEnv[:len(sysEnv):len(sysEnv)], overrides...) {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
