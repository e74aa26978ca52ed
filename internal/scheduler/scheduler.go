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

// Package scheduler runs one cron-armed job per goroutine, waking each on
// its own signal channel at the next fire instant computed by the cron
// package.
//
// The wait/wake shape mirrors the pthread_cond_timedwait loop it replaces:
// a job with no pattern armed blocks indefinitely, Arm computes a fresh
// deadline and wakes the goroutine immediately so it can recompute, and
// Remove requests termination and waits for the goroutine to exit before
// returning, the same ordering as a pthread_join on removal. The condition
// variable's wait/signal pair is re-expressed as a buffered "wake" channel,
// since Go's sync.Cond has no native way to race a wait against a timer.
package scheduler

import (
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/rdkcentral/dcm-agent-sub001/internal/cron"
)

// Callback is invoked when a job's cron pattern fires. It receives the job
// name so one callback can serve several jobs.
type Callback func(name string)

// Job is a single named, independently armable schedule.
type Job struct {
	name   string
	cb     Callback
	logger log.Logger
	now    func() time.Time

	mu         sync.Mutex
	expr       *cron.Expression
	armed      bool
	terminated bool

	wake chan struct{} // buffered(1): re-arm/disarm/remove notifications
	done chan struct{}
}

// NewJob creates a job in the disarmed state and starts its goroutine. The
// caller must call Remove to stop it.
func NewJob(name string, cb Callback, logger log.Logger) *Job {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	j := &Job{
		name:   name,
		cb:     cb,
		logger: log.With(logger, "component", "scheduler", "job", name),
		now:    time.Now,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go j.run()
	return j
}

func (j *Job) signal() {
	select {
	case j.wake <- struct{}{}:
	default:
	}
}

// Arm parses pattern and starts (or re-starts) the job's wait loop against
// it. A job with a newly parsed pattern immediately recomputes its next
// fire time; any wait in progress is interrupted and recalculated.
func (j *Job) Arm(pattern string) error {
	expr, err := cron.Parse(pattern)
	if err != nil {
		return errors.Wrapf(err, "scheduler: job %s: bad cron pattern", j.name)
	}
	j.mu.Lock()
	j.expr = expr
	j.armed = true
	j.mu.Unlock()
	j.signal()
	level.Info(j.logger).Log("msg", "job armed", "pattern", pattern)
	return nil
}

// Disarm stops the job from firing without destroying its goroutine.
func (j *Job) Disarm() {
	j.mu.Lock()
	j.armed = false
	j.expr = nil
	j.mu.Unlock()
	j.signal()
	level.Info(j.logger).Log("msg", "job disarmed")
}

// Remove terminates the job's goroutine and waits for it to exit.
func (j *Job) Remove() {
	j.mu.Lock()
	j.terminated = true
	j.mu.Unlock()
	j.signal()
	<-j.done
}

func (j *Job) snapshot() (expr *cron.Expression, armed, terminated bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.expr, j.armed, j.terminated
}

func (j *Job) run() {
	defer close(j.done)
	for {
		expr, armed, terminated := j.snapshot()
		if terminated {
			return
		}
		if !armed {
			<-j.wake
			continue
		}

		fireAt, err := cron.NextAfter(expr, j.now())
		if err != nil {
			level.Warn(j.logger).Log("msg", "no future fire instant for pattern, disarming", "err", err)
			j.Disarm()
			continue
		}

		timer := time.NewTimer(time.Until(fireAt))
		select {
		case <-timer.C:
			_, stillArmed, terminated := j.snapshot()
			if terminated {
				return
			}
			if stillArmed {
				level.Info(j.logger).Log("msg", "job fired", "at", fireAt)
				if j.cb != nil {
					j.cb(j.name)
				} else {
					level.Warn(j.logger).Log("msg", "no callback registered for job")
				}
			}
		case <-j.wake:
			timer.Stop()
			// Arm/Disarm/Remove changed state; loop around to re-evaluate.
		}
	}
}
