package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/adapters/logger"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer without colours.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Info("scanned includes of 3 sources")

	goldie.New(t).Assert(t, "info_basic", buf.Bytes())
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Warn("signature store discarded, every target is stale")

	goldie.New(t).Assert(t, "warn_basic", buf.Bytes())
}

func TestLogger_Error_Plain(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(errors.New("boom"))

	goldie.New(t).Assert(t, "error_plain", buf.Bytes())
}

func TestLogger_Error_Chain(t *testing.T) {
	lg, buf := newTestLogger(t)

	cause := zerr.With(zerr.Wrap(errors.New("exit status 1"), "command failed"), "exit_code", 1)
	err := errors.Join(domain.ErrActionFailed, zerr.With(cause, "target", "built/a.o"))
	lg.Error(err)

	goldie.New(t).Assert(t, "error_chain", buf.Bytes())
}

func TestLogger_Error_MultilineMetadata(t *testing.T) {
	lg, buf := newTestLogger(t)

	err := zerr.With(zerr.New("command failed"), "output", "a.c:1: error: expected ';'\n1 error generated.\n")
	lg.Error(err)

	goldie.New(t).Assert(t, "error_output", buf.Bytes())
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Info("hello")
	lg.Error(errors.New("boom"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var info map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &info))
	assert.Equal(t, "INFO", info["level"])
	assert.Equal(t, "hello", info["msg"])

	var failure map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &failure))
	assert.Equal(t, "ERROR", failure["level"])
	assert.Equal(t, "boom", failure["error"])
}

func TestLogger_SetOutputKeepsJSON(t *testing.T) {
	lg, _ := newTestLogger(t)
	lg.SetJSON(true)

	var buf bytes.Buffer
	lg.SetOutput(&buf)
	lg.Warn("careful")

	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestCollectErrorEntries_WrappedStdError(t *testing.T) {
	err := zerr.With(errors.New("permission denied"), "path", ".bake/signatures.json")
	err = zerr.Wrap(err, domain.ErrStoreSaveFailed.Error())

	entries := logger.CollectErrorEntries(err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ErrStoreSaveFailed.Error(), entries[0].Message())
	assert.Empty(t, entries[0].Metadata())
	assert.Equal(t, "permission denied", entries[1].Message())
	assert.Equal(t, map[string]any{"path": ".bake/signatures.json"}, entries[1].Metadata())
}
