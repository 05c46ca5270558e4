package server

/*
   Copyright 2020 BBOXX

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bboxx/overwatch/dispatch"
	"github.com/bboxx/overwatch/log"
	"github.com/bboxx/overwatch/store"
	"github.com/julienschmidt/httprouter"
)

// Config for the overwatch worker server
type Config struct {
	Role              string        `json:"role" yaml:"role"`
	ListenAddress     string        `json:"listen_address" yaml:"listen_address"`
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout"`
	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
}

// Runner runs bounded worker invocations for dispatch payloads.
// Implemented by worker.Worker.
type Runner interface {
	Run(ctx context.Context, p dispatch.Payload) (err error)
}

// Server is an overwatch worker invocation and results api server
type Server struct {
	config  Config
	http    *http.Server
	router  *httprouter.Router
	runner  Runner
	results store.Store
}

// New creates a new worker server
func New(config Config, runner Runner, results store.Store) (server *Server, err error) {
	server = &Server{}
	server.config = config
	server.router = httprouter.New()
	server.http = &http.Server{}
	server.http.Addr = config.ListenAddress
	server.runner = runner
	server.results = results

	if config.WriteTimeout != 0 {
		server.http.WriteTimeout = config.WriteTimeout
	}

	if config.ReadTimeout != 0 {
		server.http.ReadTimeout = config.ReadTimeout
	}

	if config.ReadHeaderTimeout != 0 {
		server.http.ReadHeaderTimeout = config.ReadHeaderTimeout
	}

	server.http.Handler = server.router
	return server, nil
}

// Start serving
func (s *Server) Start() (err error) {
	if err = s.http.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Router returns this server http router
func (s *Server) Router() (r *httprouter.Router) {
	return s.router
}

// Runner returns this server worker runner
func (s *Server) Runner() (r Runner) {
	return s.runner
}

// Results returns this server results store
func (s *Server) Results() (r store.Store) {
	return s.results
}

// ServeHTTP implements the http.Handler interface for testing and handler usage
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

// Close this server and its results store
func (s *Server) Close(ctx context.Context) (err error) {
	s.http.Shutdown(ctx)
	if s.results != nil {
		return s.results.Close()
	}
	return nil
}

// AddHandler adds a handler for the given method and path
func (s *Server) AddHandler(method, path string, handler Handle) {
	s.router.Handle(method, path, logger(recovery(handler)))
}

// AddServerHandler adds a handler for the given method and path
func (s *Server) AddServerHandler(method, path string, handler Handler) {
	log.Info("adding handler").String("path", path).String("method", method).Log()
	s.router.Handle(method, path, logger(recovery(handler(s))))
}

// Handler is a handler that has access to the server
type Handler func(*Server) httprouter.Handle

// Handle is a http handler
type Handle = httprouter.Handle

// Params from the URL
type Params = httprouter.Params

// recovery middleware
func recovery(h Handle) (n Handle) {
	return func(w http.ResponseWriter, r *http.Request, p Params) {

		defer func() {
			err := recover()
			if err != nil {
				jsonBody, _ := json.Marshal(map[string]interface{}{
					"message": "There was an internal server error",
					"error":   err,
				})

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write(jsonBody)
			}
		}()

		h(w, r, p)

	}
}

// logger middleware
func logger(h Handle) (n Handle) {
	return func(w http.ResponseWriter, r *http.Request, p Params) {
		start := time.Now()
		h(w, r, p)
		log.Info("api request").String("method", r.Method).
			String("uri", r.URL.String()).
			String("requester", r.RemoteAddr).
			Int("duration_ms", time.Since(start).Milliseconds()).
			Log()
	}
}
