package worker

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/bboxx/overwatch/config"
	"github.com/bboxx/overwatch/dispatch"

	_ "github.com/bboxx/overwatch/fetcher/postgres"
)

const countDefinition = `
name: active_ccu_count
description: number of active CCU units
team: data_insight
type: quality
metrics:
  - active: true
    tags:
      desco: rwanda
    sources:
      - name: repo_db
        details:
          query: select count(*) from ccu where desco = 'rwanda'
    publishers:
      - name: stdout
`

const linkDefinition = `
name: ccu_link_true_record
description: CCU links present in both repo and CRM
team: data_insight
type: consistency
action: difference
metrics:
  - active: true
    sources:
      - name: repo_db
        details:
          query: select count(*) from ccu_links
      - name: crm_db
        details:
          query: select count(*) from crm_ccu_links
    publishers:
      - name: stdout
`

type fakeInvoker struct {
	payloads []dispatch.Payload
}

func (f *fakeInvoker) Invoke(_ context.Context, p dispatch.Payload) (err error) {
	f.payloads = append(f.payloads, p)
	return nil
}

func workerConfig(t *testing.T) (c config.Config, dir string) {
	t.Helper()

	dir, err := ioutil.TempDir("", "overwatch-worker")
	if err != nil {
		t.Fatalf("error creating temp dir: %s", err)
	}

	definitions := map[string]string{
		"active_ccu_count.yaml":     countDefinition,
		"ccu_link_true_record.yaml": linkDefinition,
	}

	for name, body := range definitions {
		if err := ioutil.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatalf("error writing definition: %s", err)
		}
	}

	c = config.DefaultConfig
	c.TestsPath = filepath.Join(dir, "*.yaml")
	return c, dir
}

func TestRunMasterDispatchesCatalog(t *testing.T) {
	cfg, dir := workerConfig(t)
	defer os.RemoveAll(dir)

	invoker := &fakeInvoker{}
	w := New(cfg, dispatch.RoleMaster, invoker, nil)

	if err := w.RunMaster(context.Background(), 0); err != nil {
		t.Fatalf("unexpected master run error: %s", err)
	}

	if len(invoker.payloads) != 1 {
		t.Fatalf("unexpected invocation count: %d", len(invoker.payloads))
	}

	p := invoker.payloads[0]
	if p.Role != dispatch.RoleSlave {
		t.Fatalf("unexpected payload role: %s", p.Role)
	}

	want := []string{"active_ccu_count.yaml", "ccu_link_true_record.yaml"}
	if len(p.FileNames) != len(want) {
		t.Fatalf("unexpected file names: %v", p.FileNames)
	}
	for i := range want {
		if p.FileNames[i] != want[i] {
			t.Fatalf("unexpected file names: %v", p.FileNames)
		}
	}
}

func TestRunMasterWrongRole(t *testing.T) {
	cfg, dir := workerConfig(t)
	defer os.RemoveAll(dir)

	w := New(cfg, dispatch.RoleSlave, nil, nil)

	if err := w.RunMaster(context.Background(), 0); !errors.Is(err, dispatch.ErrWrongRole) {
		t.Fatalf("expected wrong role error, got: %v", err)
	}
}

func TestRunUnknownRole(t *testing.T) {
	cfg, dir := workerConfig(t)
	defer os.RemoveAll(dir)

	w := New(cfg, dispatch.RoleSlave, nil, nil)

	if err := w.Run(context.Background(), dispatch.Payload{Role: "supervisor"}); err == nil {
		t.Fatal("expected an error for an unknown payload role")
	}
}

func TestRunSlaveWithoutFetchers(t *testing.T) {
	cfg, dir := workerConfig(t)
	defer os.RemoveAll(dir)

	// no fetchers are configured, every source resolution fails and every
	// test is dropped, the run itself must still complete
	w := New(cfg, dispatch.RoleSlave, nil, nil)

	err := w.RunSlave(context.Background(), []string{"active_ccu_count.yaml"})
	if err != nil {
		t.Fatalf("unexpected slave run error: %s", err)
	}
}
