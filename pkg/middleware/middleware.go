// Package middleware provides the HTTP middleware shared by Docent modules.
package middleware

import (
	"net/http"
	"slices"
)

// Chain is an ordered middleware stack. The first middleware added wraps
// outermost and sees the request first.
type Chain []func(http.Handler) http.Handler

// Use appends middleware to the chain.
func (c *Chain) Use(mw ...func(http.Handler) http.Handler) {
	*c = append(*c, mw...)
}

// Then wraps h with every middleware in the chain.
func (c Chain) Then(h http.Handler) http.Handler {
	for _, mw := range slices.Backward(c) {
		h = mw(h)
	}
	return h
}
