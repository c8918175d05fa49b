package ports

// DependencyScanner discovers files a source includes.
//
//go:generate go run go.uber.org/mock/mockgen -source=scanner.go -destination=mocks/mock_scanner.go -package=mocks
type DependencyScanner interface {
	// Scan returns the project files source includes, transitively, searching dirs in order.
	// Paths are relative to root when they lie below it. generated, when set, reports
	// whether a missing root-relative path is produced by a declared target.
	Scan(root, source string, dirs []string, generated func(string) bool) ([]string, error)
}
