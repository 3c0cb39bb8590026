package server

import (
	"net/http"
	"slices"
	"strings"
)

// BasicRouter implements [Router] on method-qualified [http.ServeMux] patterns.
//
// Middleware registered with Use wraps the routes registered after it.
type BasicRouter struct {
	mux    *http.ServeMux
	chain  []Middleware
	routes []string
}

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware. The first one added is the outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.chain = append(r.chain, middleware...)
}

// Handle registers handler for method and path. A GET route also answers HEAD, and
// other methods on a known path get 405.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.register(strings.ToUpper(method)+" "+path, handler)
}

// Handler registers h under every pattern from [Handler.Routes], e.g. "GET /watch/{kind}/{id}".
func (r *BasicRouter) Handler(h Handler) {
	for _, pattern := range h.Routes() {
		r.register(pattern, h)
	}
}

// Routes lists the registered patterns in registration order.
func (r *BasicRouter) Routes() []string {
	return slices.Clone(r.routes)
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *BasicRouter) register(pattern string, handler http.Handler) {
	for _, mw := range slices.Backward(r.chain) {
		handler = mw(handler)
	}
	r.mux.Handle(pattern, handler)
	r.routes = append(r.routes, pattern)
}
