package session

import (
	"jobdash/internal/model"
	"strings"
)

const (
	RouteHome   = "/"
	RouteJobs   = "/jobs"
	RouteLogin  = "/login"
	RouteScrape = "/admin/scrape"
	RouteRuns   = "/admin/runs"
	RouteUsers  = "/admin/users"
)

type access int

const (
	public access = iota
	guestOnly
	signedIn
	adminOnly
)

var routes = map[string]access{
	RouteHome:   public,
	RouteLogin:  guestOnly,
	RouteJobs:   signedIn,
	RouteScrape: adminOnly,
	RouteRuns:   adminOnly,
	RouteUsers:  adminOnly,
}

// Resolve returns "" when u may view path, or the path to redirect to.
// Sub-paths inherit the access rule of their route.
func Resolve(path string, u *model.User) string {
	rule, ok := lookup(path)
	if !ok {
		return RouteHome
	}

	switch rule {
	case guestOnly:
		if u != nil {
			return RouteJobs
		}
	case signedIn:
		if u == nil {
			return RouteLogin
		}
	case adminOnly:
		if u == nil {
			return RouteLogin
		}
		if !u.IsAdmin() {
			return RouteHome
		}
	}
	return ""
}

func lookup(path string) (access, bool) {
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	if rule, ok := routes[path]; ok {
		return rule, true
	}

	for route, rule := range routes {
		if route != RouteHome && strings.HasPrefix(path, route+"/") {
			return rule, true
		}
	}
	return 0, false
}
