package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineHandler_Attributes(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	log := slog.New(newLineHandler(&buf, slog.LevelInfo))

	log.With("target", "out/a.o").WithGroup("store").Info("loaded", "records", 3, slog.Group("gen", "n", 7), slog.Attr{})
	log.Debug("hidden")
	log.Warn("careful")

	assert.Equal(t, "loaded target=out/a.o store.records=3 store.gen.n=7\n! careful\n", buf.String())
}
