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
	"fmt"
	"net/http"

	"github.com/bboxx/overwatch/server"
	"github.com/bboxx/overwatch/store"
)

// GetResults returns the latest results of all tests seen by this worker
func GetResults(srv *server.Server) (handle server.Handle) {
	return func(w http.ResponseWriter, r *http.Request, p server.Params) {
		defer r.Body.Close()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if srv.Results() == nil {
			httpError(w, fmt.Errorf("no results store configured"), http.StatusNotFound)
			return
		}

		var result Result
		err := srv.Results().Iter(func(_ string, r store.Result) bool {
			result.Results = append(result.Results, r)
			return true
		})

		if err != nil {
			httpError(w, err, http.StatusInternalServerError)
			return
		}

		buf, err := json.Marshal(&result)
		if err != nil {
			httpError(w, err, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(buf)
	}
}

// GetResult returns the latest results for all tests sharing the given name
func GetResult(srv *server.Server) (handle server.Handle) {
	return func(w http.ResponseWriter, r *http.Request, p server.Params) {
		defer r.Body.Close()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if srv.Results() == nil {
			httpError(w, fmt.Errorf("no results store configured"), http.StatusNotFound)
			return
		}

		name := p.ByName("name")

		var result Result
		err := srv.Results().Iter(func(_ string, r store.Result) bool {
			if r.Name == name {
				result.Results = append(result.Results, r)
			}
			return true
		})

		if err != nil {
			httpError(w, err, http.StatusInternalServerError)
			return
		}

		if len(result.Results) == 0 {
			httpError(w, store.ErrResultNotFound, http.StatusNotFound)
			return
		}

		buf, err := json.Marshal(&result)
		if err != nil {
			httpError(w, err, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write(buf)
	}
}
