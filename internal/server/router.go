package server

import (
	"net/http"
	"slices"
	"strings"
)

var _ Router = (*BasicRouter)(nil)

// BasicRouter is a small HTTP router implementing the [Router] interface on top of [http.ServeMux].
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	patterns    []string
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use adds [Middleware] to the stack. Middleware added first runs first.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for one method on path, behind the middleware registered so far.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	wrapped := r.Apply(handler)
	r.register(strings.ToUpper(method)+" "+path, path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !allowed(method, req.Method) {
			w.Header().Set("Allow", strings.ToUpper(method))
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wrapped.ServeHTTP(w, req)
	}))
}

// Handler registers every route of a [Handler] for all methods.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)
	for _, route := range handler.Routes() {
		r.register("* "+route, route, wrapped)
	}
}

// register matches path exactly. A trailing slash would otherwise make it a catch-all for the subtree.
func (r *BasicRouter) register(label, path string, h http.Handler) {
	pattern := path
	if strings.HasSuffix(pattern, "/") {
		pattern += "{$}"
	}
	r.mux.Handle(pattern, h)
	r.patterns = append(r.patterns, label)
}

// Routes lists the registered routes as "METHOD path", "*" standing for any method.
func (r *BasicRouter) Routes() []string {
	return slices.Clone(r.patterns)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler with the registered middleware, the last one added innermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}
	return handler
}

// allowed reports whether got may be served by a route registered for want. GET routes answer HEAD too.
func allowed(want, got string) bool {
	if strings.EqualFold(want, got) {
		return true
	}
	return strings.EqualFold(want, http.MethodGet) && got == http.MethodHead
}
