package logger

// Error formatting internals exported for white-box tests.
var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)

// Message returns the entry's message.
func (e errorEntry) Message() string { return e.message }

// Metadata returns the entry's metadata.
func (e errorEntry) Metadata() map[string]any { return e.metadata }
