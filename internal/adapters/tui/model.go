package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	taskListWidthRatio = 0.3
	logPaneBorderWidth = 4
	headerHeight       = 2
	// maxLogLines is how much output each action keeps for display.
	maxLogLines = 1000
)

// TaskStatus represents the current state of a target in the list.
type TaskStatus string

const (
	// StatusPending indicates the target has not started; it may turn out up to date.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the action is executing.
	StatusRunning TaskStatus = "Running"
	// StatusDone indicates the action succeeded.
	StatusDone TaskStatus = "Done"
	// StatusError indicates the action failed.
	StatusError TaskStatus = "Error"
)

// TaskNode is one target in the list.
type TaskNode struct {
	Name   string
	Status TaskStatus
	// Lines holds the most recent output lines; Partial the unterminated tail.
	Lines   []string
	Partial string
}

// Model is the bubbletea model of a run.
type Model struct {
	Tasks          []*TaskNode
	TaskMap        map[string]*TaskNode
	SpanMap        map[string]*TaskNode
	Viewport       viewport.Model
	Spinner        spinner.Model
	ActiveTaskName string
	SelectedIdx    int
	// FollowMode moves the log pane to each action that starts.
	FollowMode bool
	Built      int
	Failed     int
	Width      int
	Height     int

	// interrupt is called when the user presses ctrl+c.
	interrupt func()
}

// NewModel creates an empty model. interrupt may be nil.
func NewModel(interrupt func()) *Model {
	return &Model{
		TaskMap:    make(map[string]*TaskNode),
		SpanMap:    make(map[string]*TaskNode),
		Viewport:   viewport.New(0, 0),
		Spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		FollowMode: true,
		interrupt:  interrupt,
	}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.Spinner.Tick
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // one case per message type
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		listWidth := int(float64(msg.Width) * taskListWidthRatio)
		m.Viewport.Width = max(msg.Width-listWidth-logPaneBorderWidth, 0)
		m.Viewport.Height = max(msg.Height-headerHeight-1, 0)
		m.refreshLogs()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case MsgPlan:
		m.Tasks = make([]*TaskNode, len(msg.Targets))
		m.TaskMap = make(map[string]*TaskNode, len(msg.Targets))
		m.SpanMap = make(map[string]*TaskNode)
		m.Built, m.Failed, m.SelectedIdx = 0, 0, 0
		for i, name := range msg.Targets {
			m.Tasks[i] = &TaskNode{Name: name, Status: StatusPending}
			m.TaskMap[name] = m.Tasks[i]
		}

	case MsgTaskStart:
		node, ok := m.TaskMap[msg.Name]
		if !ok {
			return m, nil
		}
		node.Status = StatusRunning
		m.SpanMap[msg.SpanID] = node
		if m.FollowMode {
			m.focus(msg.Name)
		}

	case MsgTaskLog:
		node, ok := m.SpanMap[msg.SpanID]
		if !ok {
			return m, nil
		}
		appendLog(node, msg.Data)
		if node.Name == m.ActiveTaskName {
			m.refreshLogs()
		}

	case MsgTaskComplete:
		node, ok := m.SpanMap[msg.SpanID]
		if !ok {
			return m, nil
		}
		if msg.Err != nil {
			node.Status = StatusError
			m.Failed++
			appendLog(node, []byte("\n"+msg.Err.Error()+"\n"))
			m.focus(node.Name)
			m.FollowMode = false
		} else {
			node.Status = StatusDone
			m.Built++
		}
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		if m.interrupt != nil {
			m.interrupt()
		}
		return tea.Quit
	case "up", "k":
		m.FollowMode = false
		m.selectIndex(m.SelectedIdx - 1)
	case "down", "j":
		m.FollowMode = false
		m.selectIndex(m.SelectedIdx + 1)
	case "f":
		m.FollowMode = true
	}
	return nil
}

func (m *Model) selectIndex(i int) {
	if len(m.Tasks) == 0 {
		return
	}
	m.SelectedIdx = min(max(i, 0), len(m.Tasks)-1)
	m.ActiveTaskName = m.Tasks[m.SelectedIdx].Name
	m.refreshLogs()
}

func (m *Model) focus(name string) {
	for i, t := range m.Tasks {
		if t.Name == name {
			m.selectIndex(i)
			return
		}
	}
}

func (m *Model) refreshLogs() {
	node, ok := m.TaskMap[m.ActiveTaskName]
	if !ok {
		m.Viewport.SetContent("")
		return
	}
	content := strings.Join(node.Lines, "\n")
	if node.Partial != "" {
		if content != "" {
			content += "\n"
		}
		content += node.Partial
	}
	m.Viewport.SetContent(content)
	m.Viewport.GotoBottom()
}

// appendLog splits data into lines, keeping the newest maxLogLines.
func appendLog(node *TaskNode, data []byte) {
	text := node.Partial + strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	node.Partial = lines[len(lines)-1]
	node.Lines = append(node.Lines, lines[:len(lines)-1]...)
	if over := len(node.Lines) - maxLogLines; over > 0 {
		node.Lines = append(node.Lines[:0], node.Lines[over:]...)
	}
}
