package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Route is a client path.
type Route string

const (
	RouteHome       Route = "/"
	RouteAuth       Route = "/auth"
	RouteOnboarding Route = "/onboarding"
	RouteWatchlist  Route = "/watchlist"
)

// DetailRoute returns /movie/:id or /tv/:id.
func DetailRoute(kind Kind, id int) Route {
	return Route(fmt.Sprintf("/%s/%d", kind, id))
}

// Detail parses a detail route. ok is false for any other route.
func (r Route) Detail() (kind Kind, id int, ok bool) {
	parts := strings.Split(strings.Trim(string(r), "/"), "/")
	if len(parts) != 2 {
		return "", 0, false
	}

	kind = Kind(parts[0])
	if !kind.Valid() {
		return "", 0, false
	}

	id, err := strconv.Atoi(parts[1])
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return kind, id, true
}

func (r Route) String() string { return string(r) }
