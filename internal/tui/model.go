// Package tui provides the BubbleTea-based live view of widget refreshes.
package tui

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/widgetsync/internal/bridge"
	"github.com/jmylchreest/widgetsync/internal/model"
)

// DefaultMaxItems is the number of notifications kept in the list.
const DefaultMaxItems = 500

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeHelp
)

// Options configures the watch view.
type Options struct {
	// Notifications is the refresh stream to display. The view stops
	// listening when it is closed.
	Notifications <-chan model.RefreshNotification
	// API, when set, backs the info header and the refresh key.
	API bridge.API
	// Provider is shown in the title when the stream is filtered.
	Provider model.Provider
	// MaxItems caps the list length; older entries are dropped.
	MaxItems int
	// ClipboardCommand overrides clipboard auto-detection.
	ClipboardCommand string
	// Now is the reference time for relative timestamps.
	Now func() time.Time
}

// Model is the watch view model.
type Model struct {
	opts Options
	mode Mode

	// Components
	list     list.Model
	viewport viewport.Model
	help     help.Model
	keys     KeyMap

	// State
	notifications []model.RefreshNotification
	selected      *model.RefreshNotification
	info          *model.WidgetInfo
	paused        bool
	missed        int
	closed        bool
	width         int
	height        int
	ready         bool

	statusMsg string
	statusErr bool
}

// notificationItem wraps a notification for the list component.
type notificationItem struct {
	notification model.RefreshNotification
	now          func() time.Time
}

func (i notificationItem) Title() string {
	return fmt.Sprintf("%s  %s", i.notification.Provider, surfaceList(i.notification.Surfaces))
}

func (i notificationItem) Description() string {
	return fmt.Sprintf("%s - %s",
		humanize.RelTime(i.notification.IssuedAt, i.now(), "ago", "from now"),
		i.notification.ID)
}

func (i notificationItem) FilterValue() string {
	return string(i.notification.Provider) + " " + i.notification.ID
}

func surfaceList(ids []model.SurfaceID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, " ")
}

// New creates a new watch view model.
func New(opts Options) Model {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Widget Refreshes"
	if opts.Provider != "" {
		l.Title += " (" + string(opts.Provider) + ")"
	}
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{
		opts: opts,
		mode: ModeList,
		list: l,
		help: help.New(),
		keys: DefaultKeyMap(),
	}
}

// Init starts listening and loads the info header.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForNotification,
		m.loadInfo,
	)
}

type notificationMsg struct {
	notification model.RefreshNotification
}

type streamClosedMsg struct{}

// waitForNotification blocks on the next notification.
func (m Model) waitForNotification() tea.Msg {
	if m.opts.Notifications == nil {
		return nil
	}
	n, ok := <-m.opts.Notifications
	if !ok {
		return streamClosedMsg{}
	}
	return notificationMsg{notification: n}
}

type infoMsg struct {
	info *model.WidgetInfo
	err  error
}

func (m Model) loadInfo() tea.Msg {
	if m.opts.API == nil {
		return nil
	}
	info, err := m.opts.API.GetWidgetInfo()
	return infoMsg{info: info, err: err}
}

type refreshResultMsg struct {
	refreshed bool
	err       error
}

func (m Model) refreshAll() tea.Msg {
	refreshed, err := m.opts.API.ForceRefreshAll()
	return refreshResultMsg{refreshed: refreshed, err: err}
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		m.list.SetSize(msg.Width, msg.Height-3)
		m.viewport = viewport.New(msg.Width, msg.Height-4)
		m.viewport.YPosition = 2
		return m, nil

	case notificationMsg:
		if m.paused {
			m.missed++
		} else {
			m.add(msg.notification)
		}
		return m, tea.Batch(m.waitForNotification, m.loadInfo)

	case streamClosedMsg:
		m.closed = true
		return m, status("Notification stream closed", true)

	case infoMsg:
		if msg.err == nil {
			m.info = msg.info
		}
		return m, nil

	case refreshResultMsg:
		switch {
		case msg.err != nil:
			return m, status("Refresh failed: "+msg.err.Error(), true)
		case msg.refreshed:
			return m, status("Refresh requested for all providers", false)
		default:
			return m, status("No widgets placed", false)
		}

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeList:
		m.list, cmd = m.list.Update(msg)
	case ModeDetail:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

// add prepends a notification, dropping the oldest beyond MaxItems.
func (m *Model) add(n model.RefreshNotification) {
	m.notifications = append([]model.RefreshNotification{n}, m.notifications...)
	if len(m.notifications) > m.opts.MaxItems {
		m.notifications = m.notifications[:m.opts.MaxItems]
	}
	m.list.SetItems(m.buildListItems())
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeList
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	switch m.mode {
	case ModeList:
		return m.handleListKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
	}
	return m, nil
}

// handleListKey handles keys in list mode.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.list.SelectedItem().(notificationItem); ok {
			m.selected = &item.notification
			m.mode = ModeDetail
			m.viewport.SetContent(m.renderDetail(item.notification))
			m.viewport.GotoTop()
		}
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if item, ok := m.list.SelectedItem().(notificationItem); ok {
			return m, m.copyYAML(item.notification)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyAll):
		data, err := json.MarshalIndent(m.notifications, "", "  ")
		if err != nil {
			return m, status("Failed to marshal JSON: "+err.Error(), true)
		}
		return m, m.copyToClipboard(string(data))

	case key.Matches(msg, m.keys.Refresh):
		if m.opts.API == nil {
			return m, status("Refresh unavailable", true)
		}
		return m, m.refreshAll

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if m.paused {
			return m, status("Paused", false)
		}
		missed := m.missed
		m.missed = 0
		return m, status(fmt.Sprintf("Resumed (%d skipped while paused)", missed), false)

	case key.Matches(msg, m.keys.Clear):
		m.notifications = nil
		m.list.SetItems(nil)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleDetailKey handles keys in detail mode.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.selected = nil
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if m.selected != nil {
			return m, m.copyYAML(*m.selected)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// buildListItems creates list items from current notifications.
func (m Model) buildListItems() []list.Item {
	items := make([]list.Item, len(m.notifications))
	for i, n := range m.notifications {
		items[i] = notificationItem{notification: n, now: m.opts.Now}
	}
	return items
}

// renderDetail renders the detail view for a notification.
func (m Model) renderDetail(n model.RefreshNotification) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("Refresh "+string(n.Provider)) + "\n\n")
	sb.WriteString(labelStyle.Render("ID: ") + n.ID + "\n")
	sb.WriteString(labelStyle.Render("Issued: ") + n.IssuedAt.Format("2006-01-02 15:04:05.000") +
		" (" + humanize.RelTime(n.IssuedAt, m.opts.Now(), "ago", "from now") + ")\n")
	sb.WriteString(labelStyle.Render("Surfaces: ") + fmt.Sprintf("%d", len(n.Surfaces)) + "\n")
	for _, id := range n.Surfaces {
		sb.WriteString(fmt.Sprintf("  #%d\n", id))
	}
	return sb.String()
}

func (m Model) copyYAML(n model.RefreshNotification) tea.Cmd {
	data, err := yaml.Marshal(struct {
		ID       string  `yaml:"id"`
		Provider string  `yaml:"provider"`
		Surfaces []int32 `yaml:"surfaces"`
		IssuedAt string  `yaml:"issued_at"`
	}{n.ID, string(n.Provider), model.SurfaceInts(n.Surfaces), n.IssuedAt.Format(time.RFC3339Nano)})
	if err != nil {
		return status("Failed to marshal YAML: "+err.Error(), true)
	}
	return m.copyToClipboard(string(data))
}

// copyToClipboard copies text to the system clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	command := m.opts.ClipboardCommand
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text, command)}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeDetail:
		return m.viewDetail()
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

// infoLine summarises the widget state for the header.
func (m Model) infoLine() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	var parts []string

	if m.paused {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("PAUSED"))
	}
	if m.closed {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("DISCONNECTED"))
	}
	if m.info != nil {
		parts = append(parts, fmt.Sprintf("%d widgets", m.info.WidgetCount))
		if m.info.LastUpdate > 0 {
			parts = append(parts, "data "+humanize.RelTime(time.UnixMilli(m.info.LastUpdate), m.opts.Now(), "ago", "from now"))
		} else {
			parts = append(parts, "no data")
		}
		if m.info.HasCoordinates {
			parts = append(parts, "coordinates set")
		}
	}
	parts = append(parts, fmt.Sprintf("%d received", len(m.notifications)))
	return muted.Render(strings.Join(parts, " · "))
}

func (m Model) viewList() string {
	s := m.infoLine() + "\n" + m.list.View() + "\n"

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		return s + statusStyle.Render(m.statusMsg)
	}
	return s + m.help.ShortHelpView(m.keys.ShortHelp())
}

func (m Model) viewDetail() string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1).Render("Refresh Detail")
	footer := m.help.ShortHelpView([]key.Binding{m.keys.Back, m.keys.Copy, m.keys.Quit})
	return header + "\n" + m.viewport.View() + "\n" + footer
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	return titleStyle.Render("Keyboard Shortcuts") + "\n\n" +
		m.help.FullHelpView(m.keys.FullHelp()) + "\n\n" +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("Press ? or esc to return")
}

// Run starts the watch view and blocks until the user quits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
