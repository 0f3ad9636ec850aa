// Package main implements a full-screen terminal player for MOD/S3M files,
// built on bubbletea/lipgloss instead of cmd/trackplay's raw-ANSI renderer.
package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oakfield-labs/trackercore"
)

const (
	patternRowsBefore = 5
	patternRowsAfter  = 5
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	playingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	stoppedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	chanStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	chanSelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	chanMuteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Strikethrough(true)
	noteStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	instStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	volStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	fxStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	curRowStyle   = lipgloss.NewStyle().Background(lipgloss.Color("4"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// model is the bubbletea model driving the player's terminal view. It never
// mutates the module: unlike an editor's model, this one only reads playback
// state off trackercore.Player each tick.
type model struct {
	player *trackercore.Player
	module *trackercore.Module

	width, height int

	selectedChannel int
	soloChannel     int
	statusMsg       string

	order, row int
}

func newModel(player *trackercore.Player) model {
	return model{
		player:      player,
		module:      player.Module(),
		soloChannel: -1,
		width:       100,
		height:      32,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, tickCmd())
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		m.order, m.row = m.player.Position()
		if m.player.Finished() {
			m.statusMsg = "end of song"
		}
		return m, tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.player.Stop()
		return m, tea.Quit

	case " ":
		if m.player.IsPlaying() {
			m.player.Stop()
		} else {
			m.player.Start()
		}

	case "left":
		if m.selectedChannel > 0 {
			m.selectedChannel--
		}

	case "right":
		if m.selectedChannel < m.module.Channels-1 {
			m.selectedChannel++
		}

	case "m":
		m.player.Mute ^= 1 << uint(m.selectedChannel)

	case "s":
		if m.soloChannel != m.selectedChannel {
			m.soloChannel = m.selectedChannel
			m.player.Mute = ^uint64(0) ^ (1 << uint(m.selectedChannel))
		} else {
			m.soloChannel = -1
			m.player.Mute = 0
		}

	case "+", "=":
		order, _ := m.player.Position()
		m.player.SeekTo(order+1, 0)

	case "-", "_":
		order, _ := m.player.Position()
		if order > 0 {
			m.player.SeekTo(order-1, 0)
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.channelHeaderView())
	b.WriteString("\n")
	b.WriteString(m.patternView())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

func (m model) headerView() string {
	title := titleStyle.Render("TRACKTUI")
	if m.module.Title != "" {
		title += " " + dimStyle.Render(m.module.Title)
	}

	status := stoppedStyle.Render("STOPPED")
	if m.player.IsPlaying() {
		status = playingStyle.Render("PLAYING")
	}

	info := fmt.Sprintf(" | Pos %02X/%02X | Row %02X | Speed %d | BPM %d | %s",
		m.order, len(m.module.Playlist), m.row, m.player.Speed(), m.player.Tempo(), status)
	return title + info
}

func (m model) channelHeaderView() string {
	var parts []string
	parts = append(parts, "     ")
	for ch := 0; ch < m.module.Channels; ch++ {
		label := fmt.Sprintf("CH%-2d", ch+1)
		style := chanStyle
		switch {
		case m.player.Mute&(1<<uint(ch)) != 0:
			style = chanMuteStyle
		case ch == m.selectedChannel:
			style = chanSelStyle
		}
		parts = append(parts, style.Render(fmt.Sprintf(" %-10s", label)))
	}
	return strings.Join(parts, "")
}

func (m model) patternView() string {
	var lines []string
	for i := -patternRowsBefore; i <= patternRowsAfter; i++ {
		lines = append(lines, m.renderNoteRow(m.order, m.row+i, i == 0))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderNoteRow(order, row int, isCurrent bool) string {
	nd, ok := m.player.NoteDataFor(order, row)
	if !ok {
		return ""
	}

	rowLabel := fmt.Sprintf("%02X  ", row&0xff)
	var cells []string
	for ch := 0; ch < m.module.Channels; ch++ {
		col := nd[ch]
		vol := volStyle.Render("..")
		if col.Vol.Kind == trackercore.VolVolume {
			vol = volStyle.Render(fmt.Sprintf("%02X", col.Vol.Param))
		}
		cell := fmt.Sprintf("%s %s %s %s%02X",
			noteStyle.Render(noteName(col.Note)),
			instStyle.Render(fmt.Sprintf("%02X", col.Instrument)),
			vol,
			fxStyle.Render(fmt.Sprintf("%X", col.Effect.Kind)),
			col.Effect.Param)
		cells = append(cells, cell)
	}

	line := rowLabel + strings.Join(cells, " | ")
	if isCurrent {
		return curRowStyle.Render(line)
	}
	return dimStyle.Render(line)
}

func (m model) footerView() string {
	keys := dimStyle.Render(" [space]Play/Stop [<>]Channel [m]Mute [s]Solo [+/-]Order [q]Quit")
	if m.statusMsg != "" {
		return keys + "\n" + statusStyle.Render(" "+m.statusMsg)
	}
	return keys
}

var noteNames = []string{
	"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-",
}

func noteName(n trackercore.Note) string {
	switch n.Kind {
	case trackercore.NoteOn:
		ni := int(n.Semitone) % 12
		oct := int(n.Semitone)/12 - 1
		if oct < 0 {
			oct = 0
		}
		return fmt.Sprintf("%s%d", noteNames[ni], oct)
	case trackercore.NoteOff:
		return "^^."
	case trackercore.NoteCut:
		return "==."
	default:
		return "..."
	}
}
