// Package nav defines the client's route table and the navigation guard
// that gates every route change behind the one-time session/workspace
// bootstrap.
package nav

import "github.com/eddiemuhoro/flowhive/internal/api"

// Route names a navigable view.
type Route string

const (
	RouteLogin    Route = "login"
	RouteRegister Route = "register"

	// Project management routes.
	RouteDashboard  Route = "dashboard"
	RouteWorkspaces Route = "workspaces"
	RouteMyTasks    Route = "my-tasks"
	RouteAnalytics  Route = "analytics"

	// Field operations routes.
	RouteFieldDashboard  Route = "field-dashboard"
	RouteFieldActivities Route = "field-activities"
	RouteFieldAnalytics  Route = "field-analytics"
	RouteFieldSettings   Route = "field-settings"
)

// RouteMeta is the access control metadata attached to a route.
type RouteMeta struct {
	// Public routes are reachable without a session.
	Public bool
	// Roles, when non-empty, restricts the route to the listed roles.
	Roles []api.Role
	// Kind, when set, binds the route to one workspace category.
	Kind api.WorkspaceKind
}

// routes is the static route table. Routes not listed are treated as
// protected with no further restrictions.
var routes = map[Route]RouteMeta{
	RouteLogin:    {Public: true},
	RouteRegister: {Public: true},

	RouteDashboard: {Kind: api.KindProjectManagement},
	// The workspace picker is reachable from either category.
	RouteWorkspaces: {},
	RouteMyTasks:    {Kind: api.KindProjectManagement},
	RouteAnalytics: {
		Kind:  api.KindProjectManagement,
		Roles: []api.Role{api.RoleManager, api.RoleExecutive},
	},

	RouteFieldDashboard:  {Kind: api.KindFieldOperations},
	RouteFieldActivities: {Kind: api.KindFieldOperations},
	RouteFieldAnalytics: {
		Kind:  api.KindFieldOperations,
		Roles: []api.Role{api.RoleManager, api.RoleExecutive},
	},
	RouteFieldSettings: {
		Kind:  api.KindFieldOperations,
		Roles: []api.Role{api.RoleManager, api.RoleExecutive},
	},
}

// Meta returns the metadata for a route.
func Meta(r Route) RouteMeta {
	return routes[r]
}

// Landing returns the dashboard for a workspace category.
func Landing(kind api.WorkspaceKind) Route {
	if kind == api.KindFieldOperations {
		return RouteFieldDashboard
	}
	return RouteDashboard
}
