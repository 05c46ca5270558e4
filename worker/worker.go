// Package worker implements the bounded overwatch invocation in all of its
// roles. A master partitions the catalog and dispatches batches, a slave
// evaluates one batch end to end, an updater reconciles dashboards.
package worker

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
	"fmt"

	"github.com/bboxx/overwatch/catalog"
	"github.com/bboxx/overwatch/config"
	"github.com/bboxx/overwatch/dispatch"
	"github.com/bboxx/overwatch/fetcher"
	"github.com/bboxx/overwatch/log"
	"github.com/bboxx/overwatch/pipeline"
	"github.com/bboxx/overwatch/publisher"
	"github.com/bboxx/overwatch/publisher/datadog"
	"github.com/bboxx/overwatch/publisher/elasticsearch"
	"github.com/bboxx/overwatch/publisher/stdout"
	"github.com/bboxx/overwatch/store"
	"github.com/segmentio/ksuid"
)

// Worker is a bounded invocation handler for a single configured role
type Worker struct {
	config  config.Config
	role    dispatch.Role
	builder *catalog.Builder
	invoker dispatch.Invoker
	results store.Store
	extra   []publisher.Publisher
}

var (
	_ dispatch.Invoker = (*Worker)(nil)
)

// New creates a worker for the given role. The invoker is used by masters
// to start slave invocations and hand off to fresh masters, nil means the
// worker invokes itself and runs everything in process. The results store
// is optional and feeds the results api.
func New(c config.Config, role dispatch.Role, invoker dispatch.Invoker, results store.Store) (w *Worker) {
	w = &Worker{}
	w.config = c
	w.role = role
	w.builder = catalog.NewBuilder(c.TestsPath)
	w.invoker = invoker
	w.results = results

	if w.invoker == nil {
		w.invoker = w
	}

	return w
}

// AddPublisher adds a destination to every publisher manager this worker
// builds, on top of the configured ones. Used for destinations tied to
// server state like the prometheus scrape endpoint.
func (w *Worker) AddPublisher(p publisher.Publisher) {
	w.extra = append(w.extra, p)
}

// Run handles one invocation payload for this worker
func (w *Worker) Run(ctx context.Context, p dispatch.Payload) (err error) {
	switch p.Role {
	case dispatch.RoleMaster:
		return w.RunMaster(ctx, p.StartIndex)
	case dispatch.RoleSlave:
		return w.RunSlave(ctx, p.FileNames)
	case dispatch.RoleUpdater:
		return w.UpdateDashboards(ctx)
	default:
		return fmt.Errorf("worker: unknown payload role: %s", p.Role)
	}
}

// Invoke makes the worker its own invoker for in process runs
func (w *Worker) Invoke(ctx context.Context, p dispatch.Payload) (err error) {
	return w.Run(ctx, p)
}

// RunMaster builds the active catalog and dispatches it in batches
// starting at the given cursor
func (w *Worker) RunMaster(ctx context.Context, startIndex int) (err error) {
	if w.role != dispatch.RoleMaster {
		return dispatch.ErrWrongRole
	}

	tests, err := w.builder.Build()
	if err != nil {
		return fmt.Errorf("worker: error building catalog: %w", err)
	}

	d := dispatch.New(w.invoker, dispatch.Config{
		BatchSize:     w.config.Run.BatchSize,
		MaxIterations: w.config.Run.MaxIterations,
	})

	return d.Run(ctx, tests, startIndex)
}

// RunSlave evaluates the active tests from the given definition files and
// publishes the results
func (w *Worker) RunSlave(ctx context.Context, fileNames []string) (err error) {
	runID := ksuid.New().String()

	tests, err := w.builder.Build(fileNames...)
	if err != nil {
		return fmt.Errorf("worker: error building batch: %w", err)
	}

	log.Info("worker: starting slave run").
		String("run_id", runID).
		Int("tests", int64(len(tests))).Log()

	fm, err := fetcher.NewManager(w.config.Fetchers)
	if err != nil {
		return fmt.Errorf("worker: error creating fetchers: %w", err)
	}
	defer fm.Close()

	pm, err := w.publishers()
	if err != nil {
		return err
	}
	defer pm.Close()

	p := pipeline.New(fm, pm, w.results, w.config.Run.MaxTestDuration, runID)
	p.Run(ctx, tests)

	return nil
}

// UpdateDashboards reconciles publisher dashboards with the full catalog,
// inactive tests included so their boards survive deactivation
func (w *Worker) UpdateDashboards(ctx context.Context) (err error) {
	tests, err := w.builder.BuildAll()
	if err != nil {
		return fmt.Errorf("worker: error building catalog: %w", err)
	}

	pm, err := w.publishers()
	if err != nil {
		return err
	}
	defer pm.Close()

	pm.UpdateDashboards(ctx, tests)
	return nil
}

// publishers builds a manager with every configured destination
func (w *Worker) publishers() (pm *publisher.Manager, err error) {
	pm = publisher.NewManager()
	pm.Add(stdout.New(w.config.Publishers.Stdout))

	if w.config.Publishers.Datadog.APIKey != "" {
		pm.Add(datadog.New(w.config.Publishers.Datadog))
	}

	if len(w.config.Publishers.Elasticsearch.Urls) > 0 {
		e, err := elasticsearch.New(w.config.Publishers.Elasticsearch)
		if err != nil {
			return nil, fmt.Errorf("worker: error creating elasticsearch publisher: %w", err)
		}
		pm.Add(e)
	}

	for _, p := range w.extra {
		pm.Add(p)
	}

	return pm, nil
}
