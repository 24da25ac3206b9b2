// Package ui implements the live status view: the status table redrawn on a
// fixed interval until interrupted.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/treykane/tunnels/internal/model"
	"github.com/treykane/tunnels/internal/output"
	"github.com/treykane/tunnels/internal/tunnel"
	"github.com/treykane/tunnels/internal/util"
)

type tickMsg time.Time

type liveModel struct {
	inspector tunnel.Inspector
	tunnels   []model.Tunnel
	columns   []string
	kind      string

	entries   []tunnel.StatusEntry
	refreshed time.Time
	spin      spinner.Model
	width     int
}

func newLiveModel(inspector tunnel.Inspector, tunnels []model.Tunnel, columns []string, kind string) liveModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	m := liveModel{inspector: inspector, tunnels: tunnels, columns: columns, kind: kind, spin: sp}
	m.refresh()
	return m
}

func (m *liveModel) refresh() {
	m.entries = tunnel.Snapshot(m.inspector, m.tunnels, m.kind)
	m.refreshed = time.Now()
}

func tickCmd() tea.Cmd {
	return tea.Tick(util.LiveRefreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m liveModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tickCmd())
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tickCmd()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.refresh()
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m liveModel) View() string {
	head := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Render("Tunnel Status")
	subhead := fmt.Sprintf("%s tunnels=%d refreshed=%s interval=%s (q quits, r refreshes now)",
		m.spin.View(), len(m.entries), m.refreshed.Format("15:04:05"), util.LiveRefreshInterval)

	rows := make([]map[string]string, 0, len(m.entries))
	for _, e := range m.entries {
		rows = append(rows, e.Row())
	}
	table, err := output.Encode(output.FormatTable, tunnel.StatusColumns, m.columns, rows)
	if err != nil {
		table = "render error: " + err.Error()
	}
	return lipgloss.JoinVertical(lipgloss.Left, head, subhead, table)
}

// RunLive drives the full-screen live status view until the user quits.
func RunLive(inspector tunnel.Inspector, tunnels []model.Tunnel, columns []string, kind string) error {
	p := tea.NewProgram(newLiveModel(inspector, tunnels, columns, kind), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
