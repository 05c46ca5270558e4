package scheduler

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
	"sync"

	"github.com/robfig/cron/v3"
)

// ErrTaskAlreadyExists task already scheduled under the given name
var ErrTaskAlreadyExists = fmt.Errorf("task already exists")

// Scheduler runs periodic catalog evaluations. Master runs can take
// long enough to overlap their schedule, overlapping runs are skipped
// instead of stacked.
type Scheduler struct {
	mtx   sync.Mutex
	cron  *cron.Cron
	tasks map[string]cron.EntryID
}

// New creates a new scheduler
func New() (scheduler *Scheduler) {
	scheduler = &Scheduler{}
	scheduler.tasks = make(map[string]cron.EntryID)

	scheduler.cron = cron.New(
		cron.WithLogger(cron.DefaultLogger),
		cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		),
	)

	return scheduler
}

// Start the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop the scheduler. The returned context can be used to wait for
// running evaluations to finish.
func (s *Scheduler) Stop() (done context.Context) {
	return s.cron.Stop()
}

// AddTaskFunc schedules the given function under name
func (s *Scheduler) AddTaskFunc(name, schedule string, task func()) (err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[name]; ok {
		return ErrTaskAlreadyExists
	}

	var id cron.EntryID
	if id, err = s.cron.AddFunc(schedule, task); err != nil {
		return fmt.Errorf("scheduler: error adding task: %w", err)
	}

	s.tasks[name] = id
	return nil
}

// RemoveTask from the scheduler
func (s *Scheduler) RemoveTask(name string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if id, ok := s.tasks[name]; ok {
		s.cron.Remove(id)
		delete(s.tasks, name)
	}
}
