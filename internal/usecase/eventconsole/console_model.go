package eventconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"klasboek/internal/bootstrap/logging"
	"klasboek/internal/usecase/events"
)

const maxShownEvents = 15

type Options struct {
	PageSize        int
	RefreshInterval time.Duration
}

type consoleModel struct {
	ctx             context.Context
	service         *events.Service
	pageSize        int
	refreshInterval time.Duration

	items         []events.EventItem
	unread        int64
	selectedIndex int
	status        string
}

type timelineLoadedMsg struct {
	items  []events.EventItem
	unread int64
	err    error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action  string
	eventID uint64
	changed bool
	err     error
}

func NewConsoleModel(ctx context.Context, service *events.Service, options Options) tea.Model {
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = maxShownEvents
	}
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &consoleModel{
		ctx:             ctx,
		service:         service,
		pageSize:        pageSize,
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return tea.Batch(m.loadTimelineCmd(), m.tickCmd())
}

func (m *consoleModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadTimelineCmd(), m.tickCmd())
	case timelineLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.items = msg.items
		m.unread = msg.unread
		if len(m.items) == 0 {
			m.selectedIndex = 0
			m.status = "timeline empty"
			return m, nil
		}
		if m.selectedIndex >= len(m.items) {
			m.selectedIndex = len(m.items) - 1
		}
		m.status = fmt.Sprintf("refreshed, %d events, %d unread", len(m.items), m.unread)
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %s", msg.action, msg.err.Error())
			return m, nil
		}
		if msg.changed {
			m.status = fmt.Sprintf("event %d marked %s", msg.eventID, msg.action)
		} else {
			m.status = fmt.Sprintf("event %d already %s", msg.eventID, msg.action)
		}
		return m, m.loadTimelineCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *consoleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
		return m, nil
	case "down", "j":
		if m.selectedIndex < len(m.items)-1 {
			m.selectedIndex++
		}
		return m, nil
	case "r":
		return m, m.loadTimelineCmd()
	case "v":
		return m, m.markCmd("viewed")
	case "a":
		return m, m.markCmd("acknowledged")
	}
	return m, nil
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

func (m *consoleModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("klasboek events (unread %d)", m.unread)))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(dimStyle.Render("no events"))
		b.WriteString("\n")
	}

	for i, item := range m.items {
		line := fmt.Sprintf("#%d [%s] %s %s/%d %s",
			item.EventID, item.Status, item.EventLabel, item.EntityType, item.EntityID, item.CreatedAt)
		if summary := strings.TrimSpace(item.Summary); summary != "" {
			line += ": " + summary
		}
		if i == m.selectedIndex {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("up/down select · v mark viewed · a acknowledge · r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *consoleModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *consoleModel) loadTimelineCmd() tea.Cmd {
	ctx := m.ctx
	service := m.service
	pageSize := m.pageSize
	return func() tea.Msg {
		items, err := service.Timeline(ctx, pageSize, 0)
		if err != nil {
			return timelineLoadedMsg{err: err}
		}
		return timelineLoadedMsg{items: items, unread: service.UnreadCount(ctx)}
	}
}

func (m *consoleModel) markCmd(action string) tea.Cmd {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.items) {
		return nil
	}
	eventID := m.items[m.selectedIndex].EventID
	ctx := m.ctx
	service := m.service

	return func() tea.Msg {
		var changed bool
		var err error
		switch action {
		case "viewed":
			changed, err = service.MarkViewed(ctx, eventID)
		case "acknowledged":
			changed, err = service.MarkAcknowledged(ctx, eventID)
		}
		if err != nil {
			logging.Warn(ctx, "console mark failed",
				slog.String("action", action),
				slog.Uint64("event_id", eventID),
			)
		}
		return actionDoneMsg{action: action, eventID: eventID, changed: changed, err: err}
	}
}
