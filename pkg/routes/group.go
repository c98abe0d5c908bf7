// Package routes declares handler tables that register onto a ServeMux.
package routes

import "net/http"

// Group nests routes and child groups under a shared path prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux and returns the ServeMux
// patterns in registration order. Children inherit their parent's prefix.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var patterns []string
	var walk func(prefix string, g Group)
	walk = func(prefix string, g Group) {
		prefix += g.Prefix
		for _, r := range g.Routes {
			p := r.pattern(prefix)
			mux.HandleFunc(p, r.Handler)
			patterns = append(patterns, p)
		}
		for _, child := range g.Children {
			walk(prefix, child)
		}
	}

	for _, g := range groups {
		walk("", g)
	}
	return patterns
}
