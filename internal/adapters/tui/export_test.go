package tui

// AppendLog exposes appendLog for tests.
var AppendLog = appendLog

// MaxLogLines exposes maxLogLines for tests.
const MaxLogLines = maxLogLines
