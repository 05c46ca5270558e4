package api

import (
	"net/http"
	"net/http/pprof"

	"github.com/bboxx/overwatch/server"
)

// AddDebugRoutes add routes for serving runtime profiling data
// Add all handlers from net/http/pprof and all profiles from pprof.Profiles().
func AddDebugRoutes(server *server.Server) {
	server.AddHandler(http.MethodGet, "/debug/pprof", wrapHTTPHandlerFunc(pprof.Index))
	server.AddHandler(http.MethodGet, "/debug/pprof/cmdline", wrapHTTPHandlerFunc(pprof.Cmdline))
	server.AddHandler(http.MethodGet, "/debug/pprof/profile", wrapHTTPHandlerFunc(pprof.Profile))
	server.AddHandler(http.MethodGet, "/debug/pprof/symbol", wrapHTTPHandlerFunc(pprof.Symbol))
	server.AddHandler(http.MethodGet, "/debug/pprof/trace", wrapHTTPHandlerFunc(pprof.Trace))
	for _, profile := range []string{"heap", "block", "mutex", "allocs", "goroutine", "threadcreate"} {
		server.AddHandler(http.MethodGet, "/debug/pprof/"+profile, wrapHTTPHandler(pprof.Handler(profile)))
	}
}
