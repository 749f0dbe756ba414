package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrel-run/kestrel/internal/launcher/client"
	"github.com/kestrel-run/kestrel/internal/launcher/wire"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	descStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// resultMsg is emitted by the background reader goroutine whenever a
// Response arrives from kestreld.
type resultMsg wire.Response

// resultItem adapts a wire.SearchResult to list.Item.
type resultItem struct {
	wire.SearchResult
}

func (i resultItem) FilterValue() string { return i.Name }
func (i resultItem) Title() string       { return i.Name }
func (i resultItem) Description() string { return i.SearchResult.Description }

type model struct {
	client      *client.Client
	input       textinput.Model
	results     list.Model
	status      string
	helpPreview string
	width       int
	height      int
}

// renderFill turns a Complete response's Fill text into a rendered
// markdown preview with glamour; Fill text here is usually a help
// plugin's description, which
// reads as a short markdown snippet rather than shell-completion text.
func renderFill(text string, width int) string {
	if width <= 0 {
		width = 76
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return rendered
}

func newModel(c *client.Client) model {
	ti := textinput.New()
	ti.Placeholder = "search for an app, file, or command..."
	ti.Focus()
	ti.CharLimit = 256

	delegate := list.NewDefaultDelegate()
	l := list.New(nil, delegate, 0, 0)
	l.Title = "kestrel"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return model{client: c, input: ti, results: l}
}

func (m model) Init() tea.Cmd {
	return waitForResponse(m.client)
}

// waitForResponse blocks on the client's response stream and turns the
// next Response into a tea.Msg, re-arming itself each time it's called.
func waitForResponse(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		resp, ok := <-c.Stream()
		if !ok {
			return nil
		}
		return resultMsg(resp)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = msg.Width - 4
		m.results.SetSize(msg.Width, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if item, ok := m.results.SelectedItem().(resultItem); ok {
				m.client.Activate(item.ID)
			}
			return m, nil
		}

	case resultMsg:
		resp := wire.Response(msg)
		cmd := waitForResponse(m.client)
		switch resp.Kind {
		case wire.ResponseUpdate:
			items := make([]list.Item, len(resp.Update))
			for i, r := range resp.Update {
				items[i] = resultItem{r}
			}
			m.results.SetItems(items)
			m.status = fmt.Sprintf("%d results", len(items))
		case wire.ResponseClose:
			return m, tea.Quit
		case wire.ResponseFill:
			m.helpPreview = renderFill(resp.Fill, m.width-4)
		}
		return m, cmd
	}

	var inputCmd, listCmd tea.Cmd
	prev := m.input.Value()
	m.input, inputCmd = m.input.Update(msg)
	if m.input.Value() != prev {
		m.client.Search(m.input.Value())
	}
	m.results, listCmd = m.results.Update(msg)
	return m, tea.Batch(inputCmd, listCmd)
}

func (m model) View() string {
	header := titleStyle.Render("kestrel") + "  " + descStyle.Render(m.status)
	view := header + "\n\n" + m.input.View() + "\n\n" + m.results.View()
	if m.helpPreview != "" {
		view += "\n" + m.helpPreview
	}
	return view
}
