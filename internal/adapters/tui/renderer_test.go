package tui_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bake/internal/adapters/tui"
)

func headless(m *tui.Model) *tui.Renderer {
	return tui.NewRenderer(m, tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer())
}

func TestRenderer_ForwardsEvents(t *testing.T) {
	r := headless(tui.NewModel(nil))
	require.NoError(t, r.Start(context.Background()))

	now := time.Now()
	r.OnPlanEmit([]string{"out/a.o", "out/b.o"})
	r.OnTaskStart("s1", "", "out/a.o", now)
	r.OnTaskLog("s1", []byte("ok\n"))
	r.OnTaskComplete("s1", now, nil)
	r.OnTaskStart("s2", "", "out/b.o", now)
	r.OnTaskComplete("s2", now, errors.New("boom"))

	require.NoError(t, r.Stop())

	m := r.Model()
	assert.Equal(t, tui.StatusDone, m.TaskMap["out/a.o"].Status)
	assert.Equal(t, []string{"ok"}, m.TaskMap["out/a.o"].Lines)
	assert.Equal(t, tui.StatusError, m.TaskMap["out/b.o"].Status)
	assert.Equal(t, 1, m.Built)
	assert.Equal(t, 1, m.Failed)
}

func TestRenderer_StopIsIdempotent(t *testing.T) {
	r := headless(tui.NewModel(nil))

	require.NoError(t, r.Stop(), "stopping before start is a no-op")
	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
	require.NoError(t, r.Stop())
}
