package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with
// additional behavior such as logging.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows which path patterns it serves, so a
// handler can encapsulate its own route definitions.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers, applies middleware, and serves HTTP.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}
