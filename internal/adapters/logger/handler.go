package logger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"go.trai.ch/bake/internal/ui/output"
	"go.trai.ch/bake/internal/ui/style"
)

// lineHandler writes one coloured line per record: an icon for warnings and
// errors, the message, then the attributes as key=value.
// Time and level names are left out; the icon and colour carry the level.
type lineHandler struct {
	out   *termenv.Output
	mu    *sync.Mutex
	level slog.Level
	// attrs holds the attributes added through WithAttrs, already formatted.
	attrs  string
	prefix string
}

func newLineHandler(w io.Writer, level slog.Level) *lineHandler {
	return &lineHandler{
		out:   output.New(w),
		mu:    &sync.Mutex{},
		level: level,
	}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

//nolint:gocritic // slog.Handler requires slog.Record by value
func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	icon, color := decorate(r.Level)

	var b strings.Builder
	if icon != "" {
		b.WriteString(icon + " ")
	}
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, h.prefix, a)
		return true
	})

	line := h.out.String(b.String()).Foreground(color).String() + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		appendAttr(&b, h.prefix, a)
	}
	clone := *h
	clone.attrs = b.String()
	return &clone
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func decorate(level slog.Level) (string, termenv.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross, termenv.RGBColor(string(style.Red))
	case level >= slog.LevelWarn:
		return style.Warning, termenv.RGBColor(string(style.Yellow))
	default:
		return "", termenv.RGBColor(string(style.Slate))
	}
}

// appendAttr writes a as " key=value". Groups are flattened into dotted keys
// and empty attributes are dropped, as slog's own handlers do.
func appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, g := range a.Value.Group() {
			appendAttr(b, prefix, g)
		}
		return
	}
	b.WriteString(" " + prefix + a.Key + "=" + a.Value.String())
}
