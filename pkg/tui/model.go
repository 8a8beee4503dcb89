package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/herraise/hubclient/pkg/notifications"
	"github.com/herraise/hubclient/pkg/toast"
)

// Panel is the bell state the model renders. *bell.Panel implements it.
type Panel interface {
	Badge() string
	IsOpen() bool
	Toggle(ctx context.Context) error
	Items() []notifications.Notification
	HasMore() bool
	LoadMore(ctx context.Context) error
	Click(ctx context.Context, id string) (notifications.Notification, error)
	MarkAllRead(ctx context.Context)
	OnChange(fn func()) (unsubscribe func())
}

// Toasts is the toast stack the model renders. *toast.Presenter implements
// it.
type Toasts interface {
	Toasts() []toast.Toast
	Dismiss(id string) bool
	Subscribe(fn func([]toast.Toast)) (unsubscribe func())
}

// Status reports whether push updates are live. *socket.Client implements
// it.
type Status interface {
	Connected() bool
}

type changedMsg struct{}

// NavigateMsg tells the model that something outside the key handlers, such
// as a toast or desktop popup click, opened target.
type NavigateMsg struct {
	Target string
}

type resultMsg struct {
	info string
	err  error
}

// subscriptions is shared by every copy of the model.
type subscriptions struct {
	once   sync.Once
	unsubs []func()
}

// Model is the bubbletea model of the terminal client.
type Model struct {
	ctx     context.Context
	panel   Panel
	toasts  Toasts
	status  Status
	user    string
	now     func() time.Time
	changes chan struct{}
	subs    *subscriptions

	cursor   int
	width    int
	flash    string
	flashErr bool
}

type Option func(*Model)

// WithStatus shows the push connection state in the header.
func WithStatus(s Status) Option {
	return func(m *Model) { m.status = s }
}

// WithUser shows who is signed in.
func WithUser(name string) Option {
	return func(m *Model) { m.user = name }
}

func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates the model and subscribes it to panel and toast changes. Call
// Close when the program exits.
func New(ctx context.Context, panel Panel, toasts Toasts, opts ...Option) Model {
	m := Model{
		ctx:     ctx,
		panel:   panel,
		toasts:  toasts,
		now:     time.Now,
		changes: make(chan struct{}, 1),
		subs:    &subscriptions{},
	}
	for _, opt := range opts {
		opt(&m)
	}

	changed := func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	}
	m.subs.unsubs = append(m.subs.unsubs,
		panel.OnChange(changed),
		toasts.Subscribe(func([]toast.Toast) { changed() }),
	)
	return m
}

// Close releases the subscriptions. It is safe to call more than once.
func (m Model) Close() {
	m.subs.once.Do(func() {
		for _, unsub := range m.subs.unsubs {
			unsub()
		}
	})
}

func (m Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		<-changes
		return changedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case changedMsg:
		m.clampCursor()
		return m, m.waitForChange()

	case resultMsg:
		m.flash, m.flashErr = msg.info, msg.err != nil
		if msg.err != nil {
			m.flash = msg.err.Error()
		}
		m.clampCursor()
		return m, nil

	case NavigateMsg:
		m.flash, m.flashErr = "Opened "+msg.Target, false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Panel):
		panel, ctx := m.panel, m.ctx
		return m, func() tea.Msg {
			return resultMsg{err: panel.Toggle(ctx)}
		}

	case key.Matches(msg, keys.Dismiss):
		if list := m.toasts.Toasts(); len(list) > 0 {
			m.toasts.Dismiss(list[0].ID)
		}
		return m, nil
	}

	if !m.panel.IsOpen() {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Down):
		m.cursor++
		m.clampCursor()

	case key.Matches(msg, keys.Up):
		m.cursor--
		m.clampCursor()

	case key.Matches(msg, keys.Open):
		items := m.panel.Items()
		if len(items) == 0 {
			return m, nil
		}
		id, panel, ctx := items[m.cursor].ID, m.panel, m.ctx
		return m, func() tea.Msg {
			n, err := panel.Click(ctx, id)
			if err != nil {
				return resultMsg{err: err}
			}
			if target := n.Target(); target != "" {
				return resultMsg{info: "Opened " + target}
			}
			return resultMsg{}
		}

	case key.Matches(msg, keys.ReadAll):
		m.panel.MarkAllRead(m.ctx)
		m.flash, m.flashErr = "All caught up.", false

	case key.Matches(msg, keys.More):
		if !m.panel.HasMore() {
			return m, nil
		}
		panel, ctx := m.panel, m.ctx
		return m, func() tea.Msg {
			return resultMsg{err: panel.LoadMore(ctx)}
		}
	}
	return m, nil
}

func (m *Model) clampCursor() {
	n := len(m.panel.Items())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) View() string {
	now := m.now()
	sections := []string{m.header()}

	if list := m.toasts.Toasts(); len(list) > 0 {
		cards := make([]string, 0, len(list))
		for _, t := range list {
			cards = append(cards, renderToast(t, now))
		}
		sections = append(sections, lipgloss.JoinVertical(lipgloss.Left, cards...))
	}

	if m.panel.IsOpen() {
		sections = append(sections, m.renderPanel(now))
	}

	if m.flash != "" {
		style := metaStyle
		if m.flashErr {
			style = errorStyle
		}
		sections = append(sections, style.Render(m.flash))
	}

	sections = append(sections, renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) header() string {
	parts := []string{titleStyle.Render("Hub")}
	if m.user != "" {
		parts = append(parts, metaStyle.Render(m.user))
	}

	bellLabel := "🔔"
	if badge := m.panel.Badge(); badge != "" {
		bellLabel += " " + badgeStyle.Render(badge)
	}
	parts = append(parts, bellLabel)

	if m.status != nil {
		if m.status.Connected() {
			parts = append(parts, liveStyle.Render("● live"))
		} else {
			parts = append(parts, metaStyle.Render("○ offline"))
		}
	}
	return strings.Join(parts, "  ")
}

func renderToast(t toast.Toast, now time.Time) string {
	title := unreadStyle.Render(fmt.Sprintf("%s %s", t.Type.Icon(), t.Title))
	body := t.Message
	meta := metaStyle.Render(toast.RelativeTime(t.CreatedAt, now))
	return toastStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, body, meta))
}

func (m Model) renderPanel(now time.Time) string {
	items := m.panel.Items()
	if len(items) == 0 {
		return panelStyle.Render(metaStyle.Render("No notifications yet."))
	}

	lines := make([]string, 0, len(items)+1)
	for i, n := range items {
		marker := " "
		style := readStyle
		if !n.Read {
			marker = "•"
			style = unreadStyle
		}
		line := fmt.Sprintf("%s %s %s  %s", marker, n.Type.Icon(), n.Title, toast.RelativeTime(n.CreatedAt, now))
		if i == m.cursor {
			line = selectedStyle.Render(line)
		} else {
			line = style.Render(line)
		}
		lines = append(lines, line)
	}
	if m.panel.HasMore() {
		lines = append(lines, metaStyle.Render("m: load more"))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderHelp() string {
	bindings := keys.help()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("%s %s", h.Key, h.Desc))
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
