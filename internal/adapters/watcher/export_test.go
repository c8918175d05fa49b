package watcher

// Ignored exposes ignored for testing.
func Ignored(path string) bool {
	return ignored(path)
}
