// Package tui is the terminal front end of the viewer: it turns key presses
// into navigation events and shows where in the scene the viewer is.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/banshee-data/nuview/internal/keys"
	"github.com/banshee-data/nuview/internal/navigation"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF9E00"))
	tokenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7D7D"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6370"))
	paddingStyle = lipgloss.NewStyle().Padding(0, 1)
)

// Positioner reports where a token sits in its scene.
type Positioner interface {
	Position(token string) (index, total int, err error)
}

// Model drives a navigation.Controller from key messages. Each key is
// handled to completion inside Update, so events never overlap.
type Model struct {
	Title string

	ctx        context.Context
	controller *navigation.Controller
	positions  Positioner

	last     *navigation.Transition
	err      error
	quitting bool
}

// New creates a model. positions may be nil.
func New(ctx context.Context, title string, c *navigation.Controller, positions Positioner) Model {
	return Model{Title: title, ctx: ctx, controller: c, positions: positions}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	var ev navigation.Event
	switch keys.Lookup(keyMsg.String()) {
	case keys.KeyQuit:
		m.quitting = true
		return m, tea.Quit
	case keys.KeyAdvance:
		ev = navigation.EventAdvance
	case keys.KeyRewind:
		ev = navigation.EventRewind
	default:
		return m, nil
	}

	tr, err := m.controller.Handle(m.ctx, ev)
	m.last = &tr
	m.err = err
	return m, nil
}

// Err returns the error from the last event, if any.
func (m Model) Err() error { return m.err }

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	token := m.controller.State().Token()

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.Title))
	b.WriteString("\n")

	position := "sample"
	if m.positions != nil {
		if i, n, err := m.positions.Position(token); err == nil {
			position = fmt.Sprintf("sample %d/%d", i+1, n)
		}
	}
	b.WriteString(position + "  " + tokenStyle.Render(token))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case m.last != nil && !m.last.Moved:
		edge := "last"
		if m.last.Event == navigation.EventRewind {
			edge = "first"
		}
		b.WriteString(noticeStyle.Render("already at the " + edge + " sample"))
		b.WriteString("\n")
	}

	help := make([]string, 0, len(keys.HelpOrder))
	for _, name := range keys.HelpOrder {
		h := keys.GlobalkeyBindings[name].Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return paddingStyle.Render(b.String()) + "\n"
}
