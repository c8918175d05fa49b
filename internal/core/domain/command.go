package domain

import "strings"

// Command is one external tool invocation prepared by an action.
type Command struct {
	// Name is the tool to run, resolved through PATH when it is not a path.
	Name string
	Args []string
	// Dir is the working directory; empty means the project root.
	Dir string
	// Env holds extra "KEY=VALUE" pairs layered over the process environment.
	Env []string
}

// String renders the command line for logs and diagnostics.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if strings.ContainsAny(arg, " \t\"'") {
			arg = `"` + strings.ReplaceAll(arg, `"`, `\"`) + `"`
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// ActionRequest is everything an action gets to produce one output.
type ActionRequest struct {
	Output  string
	Inputs  []string
	Options Options
	// Root is the directory relative paths are resolved against.
	Root      string
	Toolchain Toolchain
}
