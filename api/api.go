// Package api implements the overwatch API handlers.
package api

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
	"encoding/json"
	"net/http"

	"github.com/bboxx/overwatch/server"
	"github.com/bboxx/overwatch/store"
)

// API endpoints
var (
	EndpointRun    = "/api/v1/run"
	EndpointResult = "/api/v1/result"
)

// Result is the api calls result envelope
type Result struct {
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
	Results []store.Result `json:"results,omitempty"`
}

// AddAllRoutes adds all api routes to the given server
func AddAllRoutes(srv *server.Server) {
	srv.AddServerHandler(http.MethodPost, EndpointRun, Invoke)
	srv.AddServerHandler(http.MethodGet, EndpointResult, GetResults)
	srv.AddServerHandler(http.MethodGet, EndpointResult+"/:name", GetResult)
}

// httpError wraps http status codes and error messages as json responses
func httpError(w http.ResponseWriter, err error, code int) {
	var result Result
	result.Error = err.Error()
	res, _ := json.Marshal(&result)

	w.WriteHeader(code)
	w.Write(res)
}

// wrapHTTPHandler from net/http for usage with the server package
func wrapHTTPHandler(h http.Handler) (handle server.Handle) {
	return func(w http.ResponseWriter, r *http.Request, _ server.Params) {
		h.ServeHTTP(w, r)
	}
}

// wrapHTTPHandlerFunc from net/http for usage with the server package
func wrapHTTPHandlerFunc(h http.HandlerFunc) (handle server.Handle) {
	return func(w http.ResponseWriter, r *http.Request, _ server.Params) {
		h(w, r)
	}
}
