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

package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireExclusiveRejectsSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.lock")

	first, err := AcquireExclusive(path)
	require.NoError(t, err)
	defer first.Release()

	_, err = AcquireExclusive(path)
	assert.ErrorIs(t, err, ErrAlreadyLocked)
}

func TestAcquireExclusiveAvailableAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.lock")

	first, err := AcquireExclusive(path)
	require.NoError(t, err)
	require.NoError(t, first.Release())

	second, err := AcquireExclusive(path)
	require.NoError(t, err)
	defer second.Release()
}

func TestWriteAndReadPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	require.NoError(t, WritePID(path))

	pid, err := ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestReadPIDRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid\n"), 0644))

	_, err := ReadPID(path)
	assert.Error(t, err)
}

func TestProcessAliveForCurrentProcess(t *testing.T) {
	assert.True(t, ProcessAlive(os.Getpid()))
}

func TestErrAlreadyRunningMentionsPID(t *testing.T) {
	err := ErrAlreadyRunning(4242)
	assert.Contains(t, err.Error(), "4242")
}
