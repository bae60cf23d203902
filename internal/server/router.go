package server

import (
	"net/http"
)

// CallbackMux serves the routes of mounted [Handler]s behind a shared middleware stack.
//
// Mounted routes only answer GET, since the consent page returns through a browser redirect.
// Every other path answers 404 with a hint so a mistyped redirect URI is easy to spot.
type CallbackMux struct {
	mux         *http.ServeMux
	middlewares []Middleware
	routes      []string
}

// NewCallbackMux creates an empty [CallbackMux].
func NewCallbackMux() *CallbackMux {
	m := &CallbackMux{mux: http.NewServeMux()}
	m.mux.HandleFunc("/", m.notFound)
	return m
}

// Use appends middleware. The first one added runs outermost.
// Middleware only applies to handlers mounted after the call.
func (m *CallbackMux) Use(middleware ...Middleware) {
	m.middlewares = append(m.middlewares, middleware...)
}

// Mount registers handler on each of its [Handler.Routes].
func (m *CallbackMux) Mount(handler Handler) {
	wrapped := m.wrap(getOnly(handler))
	for _, route := range handler.Routes() {
		m.mux.Handle(route, wrapped)
		m.routes = append(m.routes, route)
	}
}

// Routes lists the mounted paths in mount order.
func (m *CallbackMux) Routes() []string {
	return append([]string(nil), m.routes...)
}

func (m *CallbackMux) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.mux.ServeHTTP(w, req)
}

func (m *CallbackMux) notFound(w http.ResponseWriter, req *http.Request) {
	msg := "newnoise is waiting for the Spotify redirect"
	if len(m.routes) > 0 {
		msg += " on " + m.routes[0]
	}
	http.Error(w, msg, http.StatusNotFound)
}

func (m *CallbackMux) wrap(handler http.Handler) http.Handler {
	for i := len(m.middlewares) - 1; i >= 0; i-- {
		handler = m.middlewares[i](handler)
	}
	return handler
}

func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, req)
	})
}
