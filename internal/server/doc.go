// Package server provides HTTP routing, middleware, and the local player server.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Player
//
// [PlayerHandler] renders GET /watch/{movie|tv}/{id} as a page embedding the third-party video
// player configured under [player] embed_base_url. The page title comes from the metadata API when
// one is configured. GET /healthz answers "ok".
//
// [Server] runs the router on the configured address. The CLI watch command and the TUI start it
// on demand and open the page in the browser.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
