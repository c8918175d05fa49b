package domain

// TargetID is a stable handle to a target in a Graph's arena.
type TargetID int32

// Target is a named build unit. Its name is also the path of the file it produces.
type Target struct {
	ID   TargetID
	Name InternedString
	Kind ActionKind

	// Inputs are handed to the action and decide both readiness and staleness.
	Inputs []InternedString
	// AltInputs gate readiness only; a change to them never forces a rebuild.
	AltInputs []InternedString
	// DependsOn decide readiness and staleness but are not handed to the action.
	DependsOn []InternedString
	Options   Options

	explicitKind ActionKind
	deps         []TargetID
	gates        []TargetID
}

// Declaration is one declare call from a front end.
type Declaration struct {
	Name      string
	Inputs    []string
	AltInputs []string
	DependsOn []string
	Options   []string
	// Kind optionally forces the action kind by name.
	Kind string
}

// Output returns the path the target's action writes.
func (t *Target) Output() string {
	return t.Name.String()
}

// InputPaths returns the inputs as plain strings, in declaration order.
func (t *Target) InputPaths() []string {
	return Strings(t.Inputs)
}

// StalenessInputs returns every path whose change makes the target stale.
func (t *Target) StalenessInputs() []InternedString {
	out := make([]InternedString, 0, len(t.Inputs)+len(t.DependsOn))
	out = append(out, t.Inputs...)
	return append(out, t.DependsOn...)
}

// Deps returns the targets among Inputs and DependsOn. Only valid after Freeze.
func (t *Target) Deps() []TargetID {
	return t.deps
}

// Gates returns every target that must retire before this one is ready. Only valid after Freeze.
func (t *Target) Gates() []TargetID {
	return t.gates
}

// IsPhony reports whether dispatching the target is a no-op.
func (t *Target) IsPhony() bool {
	return t.Kind == KindPhony
}
