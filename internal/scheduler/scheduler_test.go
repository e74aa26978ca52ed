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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobFiresOnSchedule(t *testing.T) {
	var mu sync.Mutex
	var fired []string
	done := make(chan struct{}, 1)

	j := NewJob("firmware-check", func(name string) {
		mu.Lock()
		fired = append(fired, name)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	}, nil)
	defer j.Remove()

	require.NoError(t, j.Arm("* * * * * *")) // 6-field: fires every second

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("job never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, fired)
	assert.Equal(t, "firmware-check", fired[0])
}

func TestJobRejectsBadPattern(t *testing.T) {
	j := NewJob("bad", func(string) {}, nil)
	defer j.Remove()

	err := j.Arm("not a cron expression")
	assert.Error(t, err)
}

func TestDisarmStopsFiring(t *testing.T) {
	var count int
	var mu sync.Mutex

	j := NewJob("disarm-me", func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	}, nil)
	defer j.Remove()

	require.NoError(t, j.Arm("* * * * * *"))
	time.Sleep(1200 * time.Millisecond)
	j.Disarm()

	mu.Lock()
	after := count
	mu.Unlock()

	time.Sleep(1200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, after, count, "no callbacks should fire once disarmed")
}

func TestRemoveIsSynchronous(t *testing.T) {
	j := NewJob("remove-me", func(string) {}, nil)
	require.NoError(t, j.Arm("* * * * *"))
	j.Remove()

	select {
	case <-j.done:
	default:
		t.Fatal("worker goroutine did not exit by the time Remove returned")
	}
}

func TestSchedulerAddRejectsDuplicateNames(t *testing.T) {
	s := New(nil)
	defer s.Shutdown()

	_, err := s.Add("dup", func(string) {})
	require.NoError(t, err)

	_, err = s.Add("dup", func(string) {})
	assert.Error(t, err)
}

func TestSchedulerRemoveIsIdempotent(t *testing.T) {
	s := New(nil)
	_, err := s.Add("job-a", func(string) {})
	require.NoError(t, err)

	s.Remove("job-a")
	assert.NotPanics(t, func() { s.Remove("job-a") })
	assert.Nil(t, s.Job("job-a"))
}

func TestSchedulerShutdownStopsAllJobs(t *testing.T) {
	s := New(nil)
	_, err := s.Add("job-1", func(string) {})
	require.NoError(t, err)
	_, err = s.Add("job-2", func(string) {})
	require.NoError(t, err)

	s.Shutdown()
	assert.Nil(t, s.Job("job-1"))
	assert.Nil(t, s.Job("job-2"))
}
