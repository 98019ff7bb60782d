package auth

import (
	"path"
	"strings"

	"plume/internal/domain/models"
)

const (
	LoginRoute = "/login"
	HomeRoute  = "/"
)

// GateAction is what the client should do for a route.
type GateAction string

const (
	GateLoading  GateAction = "loading"
	GateRender   GateAction = "render"
	GateRedirect GateAction = "redirect"
)

// Decision is the gate outcome for one route.
type Decision struct {
	Action   GateAction `json:"action"`
	Location string     `json:"location,omitempty"`
}

// Decide gates a client route. The login page is the only public route.
// While the identity is unresolved nothing is rendered and nobody is
// redirected, so a signed-in user never sees the login page flash.
func Decide(route string, res models.Resolution) Decision {
	if res.State == models.ResolutionUnresolved {
		return Decision{Action: GateLoading}
	}

	authenticated := res.State == models.ResolutionAuthenticated && res.Identity != nil

	if IsPublicRoute(route) {
		if authenticated {
			return Decision{Action: GateRedirect, Location: HomeRoute}
		}
		return Decision{Action: GateRender}
	}

	if !authenticated {
		return Decision{Action: GateRedirect, Location: LoginRoute}
	}
	return Decision{Action: GateRender}
}

// IsPublicRoute reports whether route is reachable without a session.
func IsPublicRoute(route string) bool {
	return normalizeRoute(route) == LoginRoute
}

func normalizeRoute(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return path.Clean(route)
}
