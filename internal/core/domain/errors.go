package domain

import "go.trai.ch/zerr"

var (
	// ErrTargetNameRequired is returned when a declaration carries an empty target name.
	ErrTargetNameRequired = zerr.New("target name is required")

	// ErrTargetNotFound is returned when a requested target is not declared in the graph.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrGraphFrozen is returned when a target is declared after the graph has been frozen for a run.
	ErrGraphFrozen = zerr.New("target graph is frozen")

	// ErrGraphNotFrozen is returned when a run is requested on a graph that has not been frozen.
	ErrGraphNotFrozen = zerr.New("target graph is not frozen")

	// ErrUnknownActionKind is returned when a target's output cannot be mapped to a build action.
	ErrUnknownActionKind = zerr.New("don't know how to build target")

	// ErrConflictingKind is returned when two declarations of one target name different action kinds.
	ErrConflictingKind = zerr.New("conflicting action kinds for target")

	// ErrNoInputs is returned when a target that needs an action has no input files.
	ErrNoInputs = zerr.New("no input files for target")

	// ErrNoActionForKind is returned when the dispatcher has no action registered for a kind.
	ErrNoActionForKind = zerr.New("no action registered for kind")

	// ErrActionFailed is returned when a target's build action reports failure.
	ErrActionFailed = zerr.New("build action failed")

	// ErrActionPanicked is returned when a build action panics inside a worker.
	ErrActionPanicked = zerr.New("build action panicked")

	// ErrUnsatisfiedDependency is returned when targets remain unbuilt because their inputs never become available.
	ErrUnsatisfiedDependency = zerr.New("dependency problem: target unsatisfied")

	// ErrInterrupted is returned when the run is cancelled from outside.
	ErrInterrupted = zerr.New("build interrupted")

	// ErrFingerprintFailed is returned when a file signature cannot be computed.
	ErrFingerprintFailed = zerr.New("failed to compute file signature")

	// ErrUnknownSignatureAlgorithm is returned when the configured signature algorithm is not supported.
	ErrUnknownSignatureAlgorithm = zerr.New("unknown signature algorithm")

	// ErrStoreSaveFailed is returned when the signature store cannot be written.
	ErrStoreSaveFailed = zerr.New("failed to save signature store")

	// ErrConfigNotFound is returned when no Bakefile can be located.
	ErrConfigNotFound = zerr.New("could not find Bakefile")

	// ErrConfigReadFailed is returned when the Bakefile cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read Bakefile")

	// ErrConfigParseFailed is returned when the Bakefile is not valid YAML.
	ErrConfigParseFailed = zerr.New("failed to parse Bakefile")

	// ErrUnsupportedVersion is returned when the Bakefile declares an unknown schema version.
	ErrUnsupportedVersion = zerr.New("unsupported Bakefile version")

	// ErrInvalidJobs is returned when a negative worker count is requested.
	ErrInvalidJobs = zerr.New("jobs must be zero or positive")

	// ErrInputResolutionFailed is returned when an input glob cannot be expanded.
	ErrInputResolutionFailed = zerr.New("failed to resolve inputs")

	// ErrIncludeScanFailed is returned when a source file cannot be scanned for includes.
	ErrIncludeScanFailed = zerr.New("failed to scan includes")

	// ErrCommandFailed is returned when an external tool exits unsuccessfully.
	ErrCommandFailed = zerr.New("command failed")

	// ErrToolNotFound is returned when an external tool is not present on PATH.
	ErrToolNotFound = zerr.New("tool not found")

	// ErrUnknownCompression is returned when an asset target names an unsupported compressor.
	ErrUnknownCompression = zerr.New("unknown compression")

	// ErrInvalidConfig marks every error raised while loading and checking the build description.
	ErrInvalidConfig = zerr.New("invalid build configuration")

	// ErrInvalidUsage marks command line mistakes: unknown flags, bad flag values.
	ErrInvalidUsage = zerr.New("invalid usage")

	// ErrBuildFailed is returned by the application when a build does not complete.
	ErrBuildFailed = zerr.New("build failed")
)
