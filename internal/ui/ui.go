package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/naestech/newNoise/internal/formatter"
	"github.com/naestech/newNoise/internal/models"
	"github.com/naestech/newNoise/internal/tasks"
)

// Controller is the subset of [tasks.Tracker] the menu drives.
type Controller interface {
	RunUpdateCycle(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.UpdateResult, error)
	AddArtists(ctx context.Context, input string) []tasks.AddResult
	RemoveArtists(input string) []tasks.RemoveResult
	Artists() []models.TrackedArtist
}

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MenuView ViewState = iota
	InputView
	ArtistsView
	UpdateView
	ResultView
)

type action int

const (
	actionUpdate action = iota
	actionAdd
	actionList
	actionRemove
	actionExit
)

var menu = []struct {
	action action
	label  string
}{
	{actionUpdate, "Update playlists"},
	{actionAdd, "Add artists"},
	{actionList, "List artists"},
	{actionRemove, "Remove artists"},
	{actionExit, "Exit"},
}

// cycleRun carries the channels of one in-flight update cycle.
type cycleRun struct {
	progress chan tasks.ProgressUpdate
	done     chan cycleCompleteMsg
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	ctl      Controller
	view     ViewState
	cursor   int
	pending  action
	input    textinput.Model
	artists  list.Model
	run      *cycleRun
	progress tasks.ProgressUpdate
	history  []string
	result   string
	err      error
	width    int
	height   int
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model driving ctl.
func NewModel(ctx context.Context, ctl Controller) *Model {
	input := textinput.New()
	input.Placeholder = "Radiohead, Big Thief"
	input.CharLimit = 512
	input.Width = 48

	return &Model{
		ctx:   ctx,
		ctl:   ctl,
		view:  MenuView,
		input: input,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

// Init has nothing to load up front.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ArtistsView {
			m.artists.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MenuView:
			return m.handleMenuKeys(msg)
		case InputView:
			return m.handleInputKeys(msg)
		case ArtistsView:
			return m.handleArtistKeys(msg)
		case UpdateView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		m.history = append(m.history, m.progress.Message)
		if len(m.history) > 5 {
			m.history = m.history[len(m.history)-5:]
		}
		return m, waitForCycle(m.run)

	case cycleCompleteMsg:
		m.run = nil
		m.err = msg.err
		m.result = ""
		if msg.err == nil {
			report, _ := formatter.ReportToText(msg.result)
			m.result = string(report)
		}
		m.view = ResultView
		return m, nil

	case artistsAddedMsg:
		m.result = renderAdded(msg.results)
		m.view = ResultView
		return m, nil

	case artistsRemovedMsg:
		m.result = renderRemoved(msg.results)
		m.view = ResultView
		return m, nil
	}

	if m.view == InputView {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	if m.view == ArtistsView {
		var cmd tea.Cmd
		m.artists, cmd = m.artists.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MenuView:
		return m.renderMenu()
	case InputView:
		return m.renderInput()
	case ArtistsView:
		return fmt.Sprintf("%s\n\n%s", m.artists.View(), m.help.ShortHelpView([]key.Binding{m.keys.back}))
	case UpdateView:
		return m.renderUpdate()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(menu)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.enter):
		return m.choose(menu[m.cursor].action)
	}
	return m, nil
}

func (m *Model) choose(a action) (tea.Model, tea.Cmd) {
	m.err = nil
	m.result = ""

	switch a {
	case actionUpdate:
		m.view = UpdateView
		m.history = nil
		m.progress = tasks.ProgressUpdate{Message: "Starting update cycle..."}
		return m, m.startCycle()
	case actionAdd, actionRemove:
		m.pending = a
		m.view = InputView
		m.input.Reset()
		return m, m.input.Focus()
	case actionList:
		artists := m.ctl.Artists()
		m.artists = list.New(artistItems(artists), list.NewDefaultDelegate(), max(m.width-4, 60), max(m.height-6, 20))
		m.artists.Title = fmt.Sprintf("Tracked artists (%d)", len(artists))
		m.view = ArtistsView
		return m, nil
	default:
		return m, tea.Quit
	}
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.view = MenuView
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		if value == "" {
			m.view = MenuView
			return m, nil
		}
		if m.pending == actionRemove {
			return m, m.removeArtists(value)
		}
		return m, m.addArtists(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleArtistKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.artists.FilterState() == list.Unfiltered {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "q":
			m.view = MenuView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.artists, cmd = m.artists.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	default:
		m.view = MenuView
		return m, nil
	}
}

func (m *Model) startCycle() tea.Cmd {
	run := &cycleRun{
		progress: make(chan tasks.ProgressUpdate, 50),
		done:     make(chan cycleCompleteMsg, 1),
	}
	m.run = run

	go func() {
		result, err := m.ctl.RunUpdateCycle(m.ctx, run.progress)
		run.done <- cycleCompleteMsg{result: result, err: err}
	}()

	return waitForCycle(run)
}

// waitForCycle delivers the next progress update, or the final result once the cycle returns.
func waitForCycle(run *cycleRun) tea.Cmd {
	return func() tea.Msg {
		if run == nil {
			return nil
		}
		select {
		case update := <-run.progress:
			return progressUpdateMsg(update)
		case done := <-run.done:
			return done
		}
	}
}

func (m *Model) addArtists(input string) tea.Cmd {
	return func() tea.Msg {
		return artistsAddedMsg{results: m.ctl.AddArtists(m.ctx, input)}
	}
}

func (m *Model) removeArtists(input string) tea.Cmd {
	return func() tea.Msg {
		return artistsRemovedMsg{results: m.ctl.RemoveArtists(input)}
	}
}

func (m *Model) renderMenu() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("newNoise"))
	b.WriteString("\n")

	for i, item := range menu {
		if i == m.cursor {
			b.WriteString(styles.selected.Render("> " + item.label))
		} else {
			b.WriteString("   " + item.label)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit}))
	return b.String()
}

func (m *Model) renderInput() string {
	prompt := "Artists to add (comma separated)"
	if m.pending == actionRemove {
		prompt = "Artists to remove (comma separated names or ids)"
	}
	title := styles.title.Render(prompt)
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back}))
}

func (m *Model) renderUpdate() string {
	title := styles.title.Render("Updating New Noise")

	bar := ""
	if m.progress.Total > 0 {
		bar = progressBar(m.progress.Step, m.progress.Total, 30) + " " + m.progress.Phase.String() + "\n"
	}

	var recent strings.Builder
	for _, line := range m.history {
		recent.WriteString(styles.help.Render(line))
		recent.WriteString("\n")
	}

	return fmt.Sprintf("%s\n%s%s\n%s", title, bar, m.progress.Message, recent.String())
}

func (m *Model) renderResult() string {
	footer := styles.help.Render("any key: menu • q: quit")
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.error.Render(fmt.Sprintf("Error: %v", m.err)), footer)
	}
	return fmt.Sprintf("%s\n%s\n%s", styles.success.Render("Done"), m.result, footer)
}

func renderAdded(results []tasks.AddResult) string {
	var b strings.Builder
	for _, r := range results {
		switch {
		case r.Err != nil:
			b.WriteString(styles.warning.Render(fmt.Sprintf("✗ %s: %v", r.Query, r.Err)))
		case r.Added:
			b.WriteString(fmt.Sprintf("✓ %s (%s)", r.Artist.Name, r.Artist.ID))
		default:
			b.WriteString(fmt.Sprintf("• %s is already tracked", r.Artist.Name))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderRemoved(results []tasks.RemoveResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.Removed {
			b.WriteString(fmt.Sprintf("✓ removed %s", r.Query))
		} else {
			b.WriteString(styles.warning.Render(fmt.Sprintf("✗ %s is not tracked", r.Query)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func progressBar(step, total, width int) string {
	filled := width * step / total
	filled = min(max(filled, 0), width)
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")).Render(strings.Repeat("█", filled)) +
		styles.help.Render(strings.Repeat("░", width-filled))
}
