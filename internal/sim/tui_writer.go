package sim

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"netenergy-sim/internal/agents"
	"netenergy-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// snapshotMsg carries a refreshed snapshot to the model.
type snapshotMsg struct{ telemetry.Snapshot }

// chatMsg carries one rendered agent message line.
type chatMsg struct {
	line string
	from agents.Agent
}

// maxChatLines bounds the scrollback kept by the model.
const maxChatLines = 500

var (
	summaryStyle = lipgloss.NewStyle().Bold(true)
	savedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	balanceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	nominalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TUIWriter renders snapshots and agent messages using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the TUI interrupts the process so the serve command shuts down.
func NewTUIWriter() *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteSnapshot implements SnapshotWriter.
func (w *TUIWriter) WriteSnapshot(s telemetry.Snapshot) error {
	w.program.Send(snapshotMsg{s})
	return nil
}

// WriteMessage implements MessageWriter.
func (w *TUIWriter) WriteMessage(m agents.Message) error {
	line := fmt.Sprintf("%s %s -> %s: %s",
		dimStyle.Render(m.Timestamp.Format(time.TimeOnly)), m.From, m.To, m.Content)
	w.program.Send(chatMsg{line: line, from: m.From})
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	table      table.Model
	vp         viewport.Model
	snapshot   telemetry.Snapshot
	haveSnap   bool
	chat       []string
	current    agents.Agent
	wrap       bool
	autoscroll bool
	width      int
	height     int
}

func newTUIModel() tuiModel {
	cols := []table.Column{
		{Title: "Node", Width: 10},
		{Title: "Traffic Mbps", Width: 13},
		{Title: "Energy W", Width: 10},
		{Title: "Status", Width: 10},
		{Title: "Updated", Width: 10},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(telemetry.DefaultNodeCount+1))
	return tuiModel{
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
		current:    agents.AgentIngest,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.layout()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "s":
			m.autoscroll = !m.autoscroll
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	case snapshotMsg:
		m.snapshot = msg.Snapshot
		m.haveSnap = true
		rows := make([]table.Row, 0, len(msg.Nodes))
		for _, n := range msg.Nodes {
			rows = append(rows, table.Row{
				n.NodeID,
				fmt.Sprintf("%.1f", n.TrafficMbps),
				fmt.Sprintf("%.1f", n.EnergyW),
				string(n.State),
				n.LastUpdate.Format(time.TimeOnly),
			})
		}
		m.table.SetRows(rows)
		m.table.SetHeight(len(rows) + 1)
		m.layout()
	case chatMsg:
		m.chat = append(m.chat, msg.line)
		if len(m.chat) > maxChatLines {
			m.chat = m.chat[len(m.chat)-maxChatLines:]
		}
		m.current = msg.from
		m.refreshViewport()
	}
	return m, nil
}

// layout gives the viewport whatever height the table and summary leave.
func (m *tuiModel) layout() {
	used := lipgloss.Height(m.table.View()) + lipgloss.Height(m.renderSummary()) + lipgloss.Height(m.renderBottom()) + 3
	h := m.height - used
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := make([]string, 0, len(m.chat))
	for _, l := range m.chat {
		if m.wrap && m.vp.Width > 0 {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) renderSummary() string {
	if !m.haveSnap {
		return dimStyle.Render("waiting for first snapshot...")
	}
	s := m.snapshot.Summary
	head := summaryStyle.Render(fmt.Sprintf("Energy %.1fW  Traffic %.1fMbps  Active %d  Throttled %d  Sleeping %d",
		s.TotalEnergyW, s.TotalTrafficMbps, s.ActiveNodes, s.ThrottledNodes, s.SleepingNodes))
	saved := savedStyle.Render(fmt.Sprintf("Saved %.1fW of %.1fW baseline", s.EnergySavedW, s.BaselineEnergyW))
	style := nominalStyle
	if s.AIActionKind == telemetry.RecommendLoadBalancing {
		style = balanceStyle
	}
	action := s.AIAction
	if m.wrap && m.width > 0 {
		action = wordwrap.String(action, m.width)
	}
	return lipgloss.JoinVertical(lipgloss.Left, head, saved, style.Render(action))
}

func (m tuiModel) renderBottom() string {
	on := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("●")
	off := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("●")
	ind := func(b bool) string {
		if b {
			return on
		}
		return off
	}
	var agentsLine []string
	for _, a := range agents.Agents {
		label := string(a)
		if a == m.current {
			label = summaryStyle.Render("[" + label + "]")
		}
		agentsLine = append(agentsLine, label)
	}
	return fmt.Sprintf("%s  %s wrap(w)  %s scroll(s)  quit(q)",
		strings.Join(agentsLine, " "), ind(m.wrap), ind(m.autoscroll))
}

func (m tuiModel) View() string {
	divider := strings.Repeat("─", m.width)
	return strings.Join([]string{
		m.table.View(),
		m.renderSummary(),
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}, "\n")
}
