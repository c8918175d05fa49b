package domain

import (
	"fmt"
	"sync"
)

// BuildContext carries the state one build owns: the project root, the target graph, the
// toolchain and the warnings raised while building. Callers create it and pass it explicitly;
// nothing is global.
type BuildContext struct {
	Root      string
	Graph     *Graph
	Toolchain Toolchain

	warnings *warningLog
}

type warningLog struct {
	mu   sync.Mutex
	msgs []string
}

// NewBuildContext creates a context rooted at root with an empty graph and the default toolchain.
func NewBuildContext(root string) *BuildContext {
	return &BuildContext{
		Root:      root,
		Graph:     NewGraph(),
		Toolchain: DefaultToolchain(),
		warnings:  &warningLog{},
	}
}

// WithGraph returns a context scheduling g that shares root, toolchain and warnings with c.
func (c *BuildContext) WithGraph(g *Graph) *BuildContext {
	return &BuildContext{
		Root:      c.Root,
		Graph:     g,
		Toolchain: c.Toolchain,
		warnings:  c.warnings,
	}
}

// Warn records a warning for the end-of-run report. Safe for concurrent use.
func (c *BuildContext) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.warnings.mu.Lock()
	defer c.warnings.mu.Unlock()
	c.warnings.msgs = append(c.warnings.msgs, msg)
}

// Warnings returns a copy of the recorded warnings in the order they were raised.
func (c *BuildContext) Warnings() []string {
	c.warnings.mu.Lock()
	defer c.warnings.mu.Unlock()
	out := make([]string, len(c.warnings.msgs))
	copy(out, c.warnings.msgs)
	return out
}
