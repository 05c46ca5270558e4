package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bboxx/overwatch/dispatch"
	"github.com/bboxx/overwatch/server"
	"github.com/bboxx/overwatch/store"

	_ "github.com/bboxx/overwatch/store/memory"
)

type fakeRunner struct {
	payloads chan dispatch.Payload
}

func (f *fakeRunner) Run(_ context.Context, p dispatch.Payload) (err error) {
	f.payloads <- p
	return nil
}

func testServer(t *testing.T) (srv *server.Server, runner *fakeRunner) {
	t.Helper()

	st, err := store.New("memory:-")
	if err != nil {
		t.Fatalf("error creating store: %s", err)
	}

	runner = &fakeRunner{payloads: make(chan dispatch.Payload, 1)}
	srv, err = server.New(server.Config{}, runner, st)
	if err != nil {
		t.Fatalf("error creating server: %s", err)
	}

	AddAllRoutes(srv)
	return srv, runner
}

func TestInvoke(t *testing.T) {
	srv, runner := testServer(t)

	payload := dispatch.Payload{Role: dispatch.RoleSlave, FileNames: []string{"active_ccu_count.yaml"}}
	buf, _ := json.Marshal(&payload)

	req := httptest.NewRequest(http.MethodPost, EndpointRun, bytes.NewReader(buf))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d, body: %s", w.Code, w.Body.String())
	}

	select {
	case got := <-runner.payloads:
		if got.Role != payload.Role || len(got.FileNames) != 1 || got.FileNames[0] != payload.FileNames[0] {
			t.Fatalf("unexpected payload: %#v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("runner was not invoked")
	}
}

func TestInvokeUnknownRole(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodPost, EndpointRun, bytes.NewReader([]byte(`{"role":"supervisor"}`)))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", w.Code)
	}
}

func TestGetResults(t *testing.T) {
	srv, _ := testServer(t)

	results := []store.Result{
		{Name: "active_ccu_count", Team: "data_insight", Value: 42},
		{Name: "ccu_link_true_record", Team: "data_insight", Value: 0},
	}

	for _, r := range results {
		if err := srv.Results().Set(r.Key(), r); err != nil {
			t.Fatalf("error seeding store: %s", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, EndpointResult, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", w.Code, w.Body.String())
	}

	var result Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("error decoding response: %s", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("unexpected result count: %d", len(result.Results))
	}
}

func TestGetResultByName(t *testing.T) {
	srv, _ := testServer(t)

	r := store.Result{Name: "active_ccu_count", Team: "data_insight", Value: 42}
	if err := srv.Results().Set(r.Key(), r); err != nil {
		t.Fatalf("error seeding store: %s", err)
	}

	req := httptest.NewRequest(http.MethodGet, EndpointResult+"/active_ccu_count", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d, body: %s", w.Code, w.Body.String())
	}

	var result Result
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("error decoding response: %s", err)
	}

	if len(result.Results) != 1 || result.Results[0].Value != 42 {
		t.Fatalf("unexpected results: %#v", result.Results)
	}

	req = httptest.NewRequest(http.MethodGet, EndpointResult+"/missing", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", w.Code)
	}
}
