// Package pipeline implements the fetch, compute and publish cycle for one
// batch of tests with per test failure isolation.
package pipeline

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
	"time"

	"github.com/bboxx/overwatch/log"
	"github.com/bboxx/overwatch/publisher"
	"github.com/bboxx/overwatch/store"
	"github.com/bboxx/overwatch/test"
)

// Resolver resolves data source values for tests. Implemented by
// fetcher.Manager.
type Resolver interface {
	Resolve(ctx context.Context, source test.DataSource) (value float64, err error)
}

// Pipeline resolves, computes and publishes results for batches of tests.
// A failing test is dropped from the batch output, it never fails the run.
type Pipeline struct {
	resolver        Resolver
	publishers      *publisher.Manager
	results         store.Store
	maxTestDuration time.Duration
	runID           string
}

// New creates a pipeline. The results store is optional, when given the
// latest result of every computed test is recorded for the results API.
func New(resolver Resolver, publishers *publisher.Manager, results store.Store,
	maxTestDuration time.Duration, runID string) (p *Pipeline) {

	return &Pipeline{
		resolver:        resolver,
		publishers:      publishers,
		results:         results,
		maxTestDuration: maxTestDuration,
		runID:           runID,
	}
}

// Run resolves every data source of every test in declaration order,
// computes results and hands the successful subset to the publishers.
// A fetch failure or a compute domain error drops only the failing test.
func (p *Pipeline) Run(ctx context.Context, tests []*test.Test) (done []*test.Test) {
	start := time.Now()

	for _, t := range tests {
		if !p.resolve(ctx, t) {
			continue
		}

		if err := t.ComputeResult(); err != nil {
			log.Error("error computing test result").
				String("name", t.Name).String("run_id", p.runID).
				Error("error", err).Log()
			continue
		}

		p.record(t)
		done = append(done, t)
	}

	log.Info("fetched and computed test results").
		Int("tests", int64(len(done))).Int("dropped", int64(len(tests)-len(done))).
		String("run_id", p.runID).
		Float("duration_seconds", time.Since(start).Seconds()).Log()

	p.publishers.Publish(ctx, done)
	return done
}

// resolve fetches all data source values of one test in declaration order.
// Slowness above the configured duration is observed, not enforced.
func (p *Pipeline) resolve(ctx context.Context, t *test.Test) (ok bool) {
	for i := range t.Sources {
		fetchStart := time.Now()

		value, err := p.resolver.Resolve(ctx, t.Sources[i])
		if err != nil {
			log.Warn("dropping test after fetch failure").
				String("name", t.Name).String("source", t.Sources[i].Name).
				String("run_id", p.runID).Error("error", err).Log()
			return false
		}

		duration := time.Since(fetchStart)
		if p.maxTestDuration > 0 && duration > p.maxTestDuration {
			log.Warn("test fetch overran").
				String("name", t.Name).String("source", t.Sources[i].Name).
				Float("duration_seconds", duration.Seconds()).Log()
		}

		v := value
		t.Sources[i].Value = &v
	}

	return true
}

func (p *Pipeline) record(t *test.Test) {
	if p.results == nil || t.Result == nil {
		return
	}

	r := store.Result{
		Name:  t.Name,
		Team:  t.Team,
		Kind:  string(t.Kind),
		Tags:  t.Tags,
		Value: *t.Result,
		Time:  time.Now(),
		RunID: p.runID,
	}

	if err := p.results.Set(r.Key(), r); err != nil {
		log.Error("error recording test result").
			String("name", t.Name).Error("error", err).Log()
	}
}
