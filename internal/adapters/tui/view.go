package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/bake/internal/ui/style"
)

// View renders the header, the target list and the log pane of the selected target.
func (m *Model) View() string {
	if m.Height == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.header(),
		lipgloss.JoinHorizontal(lipgloss.Top, m.taskList(), m.logPane()),
	)
}

func (m *Model) header() string {
	progress := fmt.Sprintf("%s built %d, failed %d of %d target(s)", m.Spinner.View(), m.Built, m.Failed, len(m.Tasks))
	return titleStyle.Render("bake") + " " + progress + "\n"
}

func (m *Model) taskList() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("TARGETS") + "\n\n")

	visible := max(m.Height-headerHeight-2, 1)
	start := 0
	if m.SelectedIdx >= visible {
		start = m.SelectedIdx - visible + 1
	}
	end := min(start+visible, len(m.Tasks))

	for _, task := range m.Tasks[start:end] {
		var st lipgloss.Style
		var icon string

		switch task.Status {
		case StatusRunning:
			st, icon = taskRunningStyle, style.Dot
		case StatusDone:
			st, icon = taskDoneStyle, style.Check
		case StatusError:
			st, icon = taskErrorStyle, style.Cross
		default:
			st, icon = taskPendingStyle, style.Circle
		}

		line := fmt.Sprintf("%s %s", icon, task.Name)
		if task.Name == m.ActiveTaskName {
			line = "> " + line
		} else {
			line = "  " + line
		}
		s.WriteString(st.Render(line) + "\n")
	}

	return listStyle.Render(s.String())
}

func (m *Model) logPane() string {
	header := titleStyle.Render("OUTPUT (waiting...)")
	if m.ActiveTaskName != "" {
		header = titleStyle.Render("OUTPUT: " + m.ActiveTaskName)
	}

	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, m.Viewport.View()))
}
