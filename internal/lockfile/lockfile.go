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

// Package lockfile provides the process-wide singleton guards shared by
// both daemons: an exclusive non-blocking advisory lock for the upload
// engine, and a plain PID file for the configuration daemon.
package lockfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrAlreadyLocked is returned by AcquireExclusive when another process
// already holds the lock.
var ErrAlreadyLocked = errors.New("lockfile: already locked by another process")

// Lock is a held exclusive, non-blocking advisory lock on a file.
type Lock struct {
	f *os.File
}

// AcquireExclusive opens (creating if needed) path and attempts a
// non-blocking exclusive flock. It returns ErrAlreadyLocked, not a wrapped
// OS error, when the lock is already held, so callers can branch on it
// without string matching.
func AcquireExclusive(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "lockfile: opening %s", path)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrAlreadyLocked
		}
		return nil, errors.Wrapf(err, "lockfile: flock %s", path)
	}
	return &Lock{f: f}, nil
}

// Release unlocks and closes the underlying file.
func (l *Lock) Release() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return errors.Wrap(err, "lockfile: unlock")
	}
	return l.f.Close()
}

// WritePID writes the current process's PID to path, truncating any
// previous content. It does not itself provide mutual exclusion; callers
// that need a singleton guard should pair it with AcquireExclusive or
// check ReadPID against a live process.
func WritePID(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644)
}

// ReadPID reads and parses the PID previously written by WritePID.
func ReadPID(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, errors.Wrapf(err, "lockfile: pid file %s does not contain a valid pid", path)
	}
	return pid, nil
}

// ProcessAlive reports whether pid names a live process, using signal 0
// (no-op) semantics rather than actually signaling the process.
func ProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// ErrAlreadyRunning formats the daemon-already-running message callers
// surface when ReadPID + ProcessAlive both succeed.
func ErrAlreadyRunning(pid int) error {
	return fmt.Errorf("lockfile: daemon already running as pid %d", pid)
}
