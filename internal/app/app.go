// Package app is the Bubble Tea shell tying the stores together: it
// funnels every view change through the navigation guard, drives login
// and logout, and surfaces realtime notifications.
package app

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eddiemuhoro/flowhive/internal/api"
	"github.com/eddiemuhoro/flowhive/internal/nav"
	"github.com/eddiemuhoro/flowhive/internal/notify"
	"github.com/eddiemuhoro/flowhive/internal/realtime"
	"github.com/eddiemuhoro/flowhive/internal/session"
	"github.com/eddiemuhoro/flowhive/internal/theme"
	"github.com/eddiemuhoro/flowhive/internal/views/feed"
	"github.com/eddiemuhoro/flowhive/internal/views/login"
	"github.com/eddiemuhoro/flowhive/internal/views/picker"
	"github.com/eddiemuhoro/flowhive/internal/views/status"
	"github.com/eddiemuhoro/flowhive/internal/workspace"
)

// NotificationMsg delivers a new notification to the shell.
type NotificationMsg struct{ Notification notify.Notification }

// ConnStatusMsg reports a realtime connection status change.
type ConnStatusMsg struct{ Status realtime.Status }

// navigateMsg requests a view change; it goes through the guard.
type navigateMsg struct{ target nav.Route }

// decisionMsg carries the guard's verdict.
type decisionMsg struct{ decision nav.Decision }

// loginResultMsg reports the outcome of a login attempt.
type loginResultMsg struct{ err error }

// workspaceListMsg delivers the workspace list for the picker.
type workspaceListMsg struct {
	items []api.Workspace
	err   error
}

// workspaceSwitchedMsg reports the outcome of a workspace switch.
type workspaceSwitchedMsg struct{ err error }

// NavigateLogin builds the message that forces the shell onto the login
// route. The 401 hook uses it after tearing down the session.
func NavigateLogin() tea.Msg { return navigateMsg{target: nav.RouteLogin} }

// Model is the root Bubble Tea model.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	sessions   *session.Store
	workspaces *workspace.Store
	guard      *nav.Guard
	conn       *realtime.Manager
	center     *notify.Center

	keys   KeyMap
	width  int
	height int

	route    nav.Route
	returnTo nav.Route

	loginView  login.Model
	feedView   feed.Model
	pickerView picker.Model
	statusBar  status.Model
}

// New creates the root model.
func New(s *session.Store, w *workspace.Store, g *nav.Guard, c *realtime.Manager, n *notify.Center) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		ctx:        ctx,
		cancel:     cancel,
		sessions:   s,
		workspaces: w,
		guard:      g,
		conn:       c,
		center:     n,
		keys:       DefaultKeyMap(),
		route:      nav.RouteDashboard,
		loginView:  login.New(),
		feedView:   feed.New(),
		pickerView: picker.New(),
		statusBar:  status.New(),
	}
}

// Init fires the first navigation, which runs the bootstrap sequence.
func (m Model) Init() tea.Cmd {
	return m.navigate(nav.RouteDashboard)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.feedView.Width = msg.Width
		m.feedView.Height = msg.Height - 4
		m.pickerView.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case navigateMsg:
		return m, m.navigate(msg.target)

	case decisionMsg:
		return m.applyDecision(msg.decision)

	case loginResultMsg:
		if msg.err != nil {
			m.loginView.Err = humanError(msg.err)
			return m, nil
		}
		m.loginView.Err = ""
		target := m.returnTo
		m.returnTo = ""
		if target == "" || target == nav.RouteLogin {
			target = nav.RouteDashboard
		}
		return m, m.navigate(target)

	case workspaceListMsg:
		if msg.err != nil {
			return m, nil
		}
		m.pickerView.SetItems(msg.items)
		if id, ok := m.workspaces.ActiveID(); ok {
			m.pickerView.ActiveID = id
		}
		return m, nil

	case workspaceSwitchedMsg:
		if msg.err != nil {
			return m, nil
		}
		// The guard reconciles the dashboard to the new workspace's
		// category, and applyDecision reattaches the realtime channel.
		return m, m.navigate(nav.RouteDashboard)

	case NotificationMsg:
		m.feedView.SetItems(m.center.Notifications())
		m.statusBar.Unread = m.center.Unread()
		return m, nil

	case ConnStatusMsg:
		m.statusBar.ConnStatus = msg.Status
		return m, nil
	}

	if m.route == nav.RouteLogin {
		var cmd tea.Cmd
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the active route.
func (m Model) View() string {
	if m.route == nav.RouteLogin {
		return m.loginView.View()
	}

	header := theme.TitleStyle.Render(routeTitle(m.route))
	body := m.feedView.View()
	if m.route == nav.RouteWorkspaces {
		body = m.pickerView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar.View(),
		"",
		header,
		"",
		body,
	)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && m.route != nav.RouteLogin {
		m.cancel()
		m.conn.Disconnect()
		return m, tea.Quit
	}

	if m.route == nav.RouteLogin {
		switch {
		case msg.Type == tea.KeyCtrlC:
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.loginView.NextField()
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			return m, m.submitLogin()
		}
		var cmd tea.Cmd
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}

	if m.route == nav.RouteWorkspaces {
		switch {
		case key.Matches(msg, m.keys.Up):
			m.pickerView.MoveUp()
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.pickerView.MoveDown()
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			if id := m.pickerView.SelectedID(); id != 0 {
				return m, m.switchWorkspace(id)
			}
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.feedView.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.feedView.MoveDown()
	case key.Matches(msg, m.keys.Enter):
		if id := m.feedView.SelectedID(); id != "" {
			m.center.MarkRead(id)
			m.feedView.SetItems(m.center.Notifications())
			m.statusBar.Unread = m.center.Unread()
		}
	case key.Matches(msg, m.keys.MarkAllRead):
		m.center.MarkAllRead()
		m.feedView.SetItems(m.center.Notifications())
		m.statusBar.Unread = 0
	case key.Matches(msg, m.keys.Workspaces):
		return m, m.navigate(nav.RouteWorkspaces)
	case key.Matches(msg, m.keys.Dashboard):
		return m, m.navigate(nav.RouteDashboard)
	case key.Matches(msg, m.keys.Field):
		return m, m.navigate(nav.RouteFieldDashboard)
	case key.Matches(msg, m.keys.Reconnect):
		if id, ok := m.workspaces.ActiveID(); ok {
			m.conn.Connect(id)
		}
	case key.Matches(msg, m.keys.Logout):
		m.sessions.Logout()
		m.conn.Disconnect()
		return m, m.navigate(nav.RouteDashboard)
	}
	return m, nil
}

// navigate asks the guard where this navigation actually lands.
func (m Model) navigate(target nav.Route) tea.Cmd {
	guard := m.guard
	ctx := m.ctx
	return func() tea.Msg {
		return decisionMsg{decision: guard.Resolve(ctx, target)}
	}
}

// applyDecision adopts the guard's verdict and, once a workspace is
// active, attaches the realtime channel to it. Connect is idempotent, so
// repeating it per navigation is harmless.
func (m Model) applyDecision(d nav.Decision) (tea.Model, tea.Cmd) {
	m.route = d.Route
	if d.ReturnTo != "" {
		m.returnTo = d.ReturnTo
	}

	if m.sessions.Authenticated() {
		if u := m.sessions.User(); u != nil {
			m.statusBar.Username = u.Username
		}
		if current := m.workspaces.Current(); current != nil {
			m.statusBar.Workspace = current.Name
			// Disconnect wipes the subscriber registry, so re-register the
			// notification handlers before (re)attaching. Both calls are
			// idempotent.
			m.center.Subscribe(m.conn)
			m.conn.Connect(current.ID)
		}
	} else {
		m.statusBar.Username = ""
		m.statusBar.Workspace = ""
	}

	m.feedView.SetItems(m.center.Notifications())
	m.statusBar.Unread = m.center.Unread()

	if m.route == nav.RouteWorkspaces {
		return m, m.loadWorkspaces()
	}
	return m, nil
}

func (m Model) loadWorkspaces() tea.Cmd {
	workspaces := m.workspaces
	ctx := m.ctx
	return func() tea.Msg {
		items, err := workspaces.FetchWorkspaces(ctx)
		return workspaceListMsg{items: items, err: err}
	}
}

func (m Model) switchWorkspace(id int) tea.Cmd {
	workspaces := m.workspaces
	ctx := m.ctx
	return func() tea.Msg {
		return workspaceSwitchedMsg{err: workspaces.FetchWorkspace(ctx, id)}
	}
}

func (m Model) submitLogin() tea.Cmd {
	creds := api.Credentials{
		Username: m.loginView.Username.Value(),
		Password: m.loginView.Password.Value(),
	}
	sessions := m.sessions
	workspaces := m.workspaces
	ctx := m.ctx
	return func() tea.Msg {
		err := sessions.Login(ctx, creds)
		if err == nil {
			workspaces.RestoreOrSelect(ctx)
		}
		return loginResultMsg{err: err}
	}
}

func routeTitle(r nav.Route) string {
	switch r {
	case nav.RouteDashboard:
		return "Dashboard"
	case nav.RouteWorkspaces:
		return "Workspaces"
	case nav.RouteMyTasks:
		return "My Tasks"
	case nav.RouteAnalytics:
		return "Analytics"
	case nav.RouteFieldDashboard:
		return "Field Operations"
	case nav.RouteFieldActivities:
		return "Field Activities"
	case nav.RouteFieldAnalytics:
		return "Field Analytics"
	case nav.RouteFieldSettings:
		return "Field Settings"
	default:
		return string(r)
	}
}

func humanError(err error) string {
	return api.Message(err)
}
