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
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/bboxx/overwatch/dispatch"
	"github.com/bboxx/overwatch/log"
	"github.com/bboxx/overwatch/server"
)

// Invoke starts a bounded worker invocation for the posted payload.
// The invocation runs detached, callers dispatch fire and forget.
func Invoke(srv *server.Server) (handle server.Handle) {
	return func(w http.ResponseWriter, r *http.Request, p server.Params) {
		defer r.Body.Close()
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		buf, err := ioutil.ReadAll(r.Body)
		if err != nil {
			httpError(w, err, http.StatusBadRequest)
			return
		}

		var payload dispatch.Payload
		if err = json.Unmarshal(buf, &payload); err != nil {
			httpError(w, err, http.StatusBadRequest)
			return
		}

		switch payload.Role {
		case dispatch.RoleMaster, dispatch.RoleSlave, dispatch.RoleUpdater:
		default:
			httpError(w, fmt.Errorf("unknown role: %q", payload.Role), http.StatusBadRequest)
			return
		}

		go func() {
			if err := srv.Runner().Run(context.Background(), payload); err != nil {
				log.Error("worker invocation failed").
					String("role", string(payload.Role)).
					Int("start_index", int64(payload.StartIndex)).
					Error("error", err).Log()
			}
		}()

		var result Result
		result.Message = "accepted"
		buf, _ = json.Marshal(&result)

		w.WriteHeader(http.StatusAccepted)
		w.Write(buf)
	}
}
