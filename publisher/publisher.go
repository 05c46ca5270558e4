// Package publisher implements the destination contracts for publishing
// computed test results, and a manager that groups tests per destination
// with per destination failure isolation.
package publisher

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
	"sync"

	"github.com/bboxx/overwatch/log"
	"github.com/bboxx/overwatch/test"
)

// Publisher is the interface for result destinations.
type Publisher interface {

	// Name of this destination as referenced by test publish targets
	Name() (name string)

	// Publish the computed results of the given tests
	Publish(ctx context.Context, tests []*test.Test) (err error)

	// UpdateDashboards reconciles dashboard definitions for the given tests.
	// This is a slower maintenance operation, not part of the steady state run.
	UpdateDashboards(ctx context.Context, tests []*test.Test) (err error)

	// Close the publisher flushing pending data
	Close() (err error)
}

// Manager holds the configured destinations of one worker run
type Manager struct {
	mtx        sync.Mutex
	publishers []Publisher
}

// NewManager creates a new publisher manager
func NewManager() (m *Manager) {
	return &Manager{}
}

// Add the given destination to the manager
func (m *Manager) Add(p Publisher) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.publishers = append(m.publishers, p)
}

// TestsFor returns the tests declaring the named destination as a target
func TestsFor(name string, tests []*test.Test) (selected []*test.Test) {
	for _, t := range tests {
		if t.HasTarget(name) {
			selected = append(selected, t)
		}
	}
	return selected
}

// Publish hands each destination the tests that declare it as a target.
// A failing destination does not prevent other destinations from
// receiving their tests.
func (m *Manager) Publish(ctx context.Context, tests []*test.Test) {
	for _, p := range m.publishers {
		selected := TestsFor(p.Name(), tests)
		if len(selected) == 0 {
			continue
		}

		if err := p.Publish(ctx, selected); err != nil {
			log.Error("error publishing results").
				String("publisher", p.Name()).
				Int("tests", int64(len(selected))).
				Error("error", err).Log()
		}
	}
}

// UpdateDashboards reconciles dashboards on each destination for the tests
// that declare it as a target, isolating per destination failures.
func (m *Manager) UpdateDashboards(ctx context.Context, tests []*test.Test) {
	for _, p := range m.publishers {
		selected := TestsFor(p.Name(), tests)

		log.Info("updating dashboards").String("publisher", p.Name()).
			Int("tests", int64(len(selected))).Log()

		if err := p.UpdateDashboards(ctx, selected); err != nil {
			log.Error("error updating dashboards").
				String("publisher", p.Name()).
				Error("error", err).Log()
		}
	}
}

// Close all destinations flushing pending data, returning the last error seen
func (m *Manager) Close() (err error) {
	for _, p := range m.publishers {
		if cerr := p.Close(); cerr != nil {
			err = cerr
		}
	}
	return err
}
