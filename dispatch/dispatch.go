// Package dispatch implements the master control loop partitioning the test
// catalog into batches and handing them to bounded worker invocations, with
// a cursor only hand off to a fresh master when the iteration budget runs out.
package dispatch

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
	"github.com/bboxx/overwatch/log"
	"github.com/bboxx/overwatch/test"
)

// Role of a bounded worker invocation
type Role string

// Worker roles
const (
	// RoleMaster partitions the catalog and dispatches batches
	RoleMaster Role = "master"

	// RoleSlave runs one batch end to end
	RoleSlave Role = "slave"

	// RoleUpdater reconciles publisher dashboards
	RoleUpdater Role = "updater"
)

// Payload is the invocation payload crossing worker boundaries. The start
// index cursor is the only protocol state carried across a master hand off.
type Payload struct {
	Role       Role     `json:"role"`
	StartIndex int      `json:"start_index"`
	FileNames  []string `json:"file_names,omitempty"`
}

// Invoker starts a bounded worker invocation for the given payload,
// synchronously in local mode or fire and forget in distributed mode.
type Invoker interface {
	Invoke(ctx context.Context, p Payload) (err error)
}

// State of the dispatch loop
type State string

// Dispatch states
const (
	StateIdle        State = "idle"
	StateDispatching State = "dispatching"
	StateHandingOff  State = "handing_off"
	StateDone        State = "done"
)

// ErrWrongRole a worker received a payload for a role it is not
// configured for. This is a fatal configuration error, never retried.
var ErrWrongRole = fmt.Errorf("dispatch: payload role does not match worker role")

// Config for the dispatch loop
type Config struct {
	BatchSize     int `json:"batch_size" yaml:"batch_size"`
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

// Dispatcher is the master control loop for one bounded generation
type Dispatcher struct {
	invoker Invoker
	config  Config
	state   State
}

// New creates a dispatcher for one master generation
func New(invoker Invoker, config Config) (d *Dispatcher) {
	return &Dispatcher{invoker: invoker, config: config, state: StateIdle}
}

// State returns the current dispatch state
func (d *Dispatcher) State() (s State) {
	return d.state
}

// Run dispatches the catalog in batches starting at the given cursor. When
// the iteration budget is exhausted with work remaining, exactly one hand
// off to a fresh master is invoked with the current cursor and this
// generation stops.
func (d *Dispatcher) Run(ctx context.Context, tests []*test.Test, startIndex int) (err error) {
	// batch sizes at or below the longest same name run cannot advance the
	// cursor, reject the configuration instead of stalling
	if run := catalog.LongestRun(tests); d.config.BatchSize <= run {
		return fmt.Errorf("dispatch: batch size %d does not exceed longest same name run %d",
			d.config.BatchSize, run)
	}

	iterations := 0
	d.state = StateDispatching

	for startIndex < len(tests) {
		iterations++

		if iterations > d.config.MaxIterations {
			d.state = StateHandingOff
			log.Info("iteration budget exhausted, handing off to new master").
				Int("start_index", int64(startIndex)).
				Int("iterations", int64(iterations-1)).Log()

			if err = d.invoker.Invoke(ctx, Payload{Role: RoleMaster, StartIndex: startIndex}); err != nil {
				return fmt.Errorf("dispatch: error handing off to new master: %w", err)
			}
			return nil
		}

		batch, nextIndex := catalog.Subset(tests, startIndex, d.config.BatchSize)
		fileNames := catalog.FileNames(batch)

		log.Info("dispatching batch to slave").
			Int("start_index", int64(startIndex)).
			Int("next_index", int64(nextIndex)).
			Int("tests", int64(len(batch))).Log()

		if err = d.invoker.Invoke(ctx, Payload{Role: RoleSlave, FileNames: fileNames}); err != nil {
			return fmt.Errorf("dispatch: error dispatching batch: %w", err)
		}

		startIndex = nextIndex
	}

	d.state = StateDone
	return nil
}
