// Copyright 2025 RDK Management
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scheduler

import (
	"sync"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
)

// Scheduler owns a named set of jobs, one background worker each.
type Scheduler struct {
	logger log.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

// New creates an empty job registry.
func New(logger log.Logger) *Scheduler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Scheduler{logger: logger, jobs: make(map[string]*Job)}
}

// Add registers a new job and starts its worker. It is an error to add a
// name twice.
func (s *Scheduler) Add(name string, cb Callback) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return nil, errors.Errorf("scheduler: job %s already registered", name)
	}
	j := NewJob(name, cb, s.logger)
	s.jobs[name] = j
	return j, nil
}

// Job returns the named job, or nil if it was never added.
func (s *Scheduler) Job(name string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[name]
}

// Remove stops and unregisters the named job. It is a no-op if the name
// was never added.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	if ok {
		delete(s.jobs, name)
	}
	s.mu.Unlock()
	if ok {
		j.Remove()
	}
}

// Shutdown removes every registered job, waiting for each worker to exit.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.mu.Unlock()
	for _, name := range names {
		s.Remove(name)
	}
}
