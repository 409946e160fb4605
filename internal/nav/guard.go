package nav

import (
	"context"
	"log"
	"sync"

	"github.com/eddiemuhoro/flowhive/internal/api"
	"github.com/eddiemuhoro/flowhive/internal/session"
	"github.com/eddiemuhoro/flowhive/internal/workspace"
)

// Decision is the outcome of one navigation request. When the guard
// redirects away from a protected route because the session is missing,
// ReturnTo carries the originally requested route so login can send the
// user back.
type Decision struct {
	Route    Route
	ReturnTo Route
}

// Guard evaluates every navigation. The first navigation runs the
// bootstrap sequence — session initialization, then workspace restoration
// — exactly once, even when navigations arrive concurrently; all later
// navigations skip straight to the decision table.
type Guard struct {
	sessions   *session.Store
	workspaces *workspace.Store

	mu   sync.Mutex
	done bool
}

// NewGuard creates a guard whose bootstrap has not run yet.
func NewGuard(s *session.Store, w *workspace.Store) *Guard {
	return &Guard{sessions: s, workspaces: w}
}

// Resolve runs bootstrap if needed, then applies the access rules to the
// target route, in precedence order:
//
//  1. protected route without a session → login, remembering the target
//  2. login while authenticated → the active workspace's landing route
//  3. role-restricted route without the role → default dashboard
//  4. route bound to the other workspace category → the active
//     workspace's own landing route
//  5. otherwise the target stands
func (g *Guard) Resolve(ctx context.Context, target Route) Decision {
	g.bootstrap(ctx)

	meta := Meta(target)
	authed := g.sessions.Authenticated()

	if !meta.Public && !authed {
		return Decision{Route: RouteLogin, ReturnTo: target}
	}

	current := g.workspaces.Current()

	if target == RouteLogin && authed {
		if current != nil {
			return Decision{Route: Landing(current.Kind)}
		}
		return Decision{Route: RouteDashboard}
	}

	if len(meta.Roles) > 0 && !g.hasRole(meta.Roles) {
		return Decision{Route: RouteDashboard}
	}

	if meta.Kind != "" && current != nil && current.Kind != meta.Kind {
		return Decision{Route: Landing(current.Kind)}
	}

	return Decision{Route: target}
}

// Bootstrapped reports whether the one-time bootstrap has run.
func (g *Guard) Bootstrapped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done
}

// bootstrap is the one-shot startup sequence. The mutex makes the
// check-and-run atomic: concurrent first navigations queue here and all
// but one observe the latch already set. The latch is set even when
// initialization fails; a transient failure leaves the session
// unauthenticated and rule 1 routes to login rather than re-running
// bootstrap.
func (g *Guard) bootstrap(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return
	}

	if err := g.sessions.Initialize(ctx); err != nil {
		log.Printf("nav: session initialization failed: %v", err)
	}
	if g.sessions.Authenticated() {
		g.workspaces.RestoreOrSelect(ctx)
	}
	g.done = true
}

func (g *Guard) hasRole(allowed []api.Role) bool {
	u := g.sessions.User()
	if u == nil {
		return false
	}
	for _, r := range allowed {
		if u.Role == r {
			return true
		}
	}
	return false
}
