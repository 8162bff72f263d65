// Package server hosts the short-lived loopback HTTP server that receives the
// catalog's approval redirect.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] internally with method filtering.
//
// # Approval Callback
//
// [ApprovalHandler] serves the redirect target of the hosted approval page.
// It parses the reported request token and approval decision, delivers them
// through a channel, and renders a close-this-window page. Only the first
// callback is processed; replays get a 400.
//
// The connect command starts the server on the configured loopback address,
// waits on the handler's result channel with a deadline, and shuts the server
// down as soon as the callback (or the timeout) arrives.
package server
