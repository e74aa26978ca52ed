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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdkcentral/dcm-agent-sub001/internal/lockfile"
)

func TestRunReturnsFailureAndEmitsLockBusyOnceWhenAlreadyLocked(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "log-upload.lock")

	held, err := lockfile.AcquireExclusive(lockPath)
	require.NoError(t, err)
	defer held.Release()

	for _, kv := range []struct{ k, v string }{
		{"LOG_UPLOAD_INCLUDE_PROPERTIES", filepath.Join(dir, "missing-include.properties")},
		{"LOG_UPLOAD_DEVICE_PROPERTIES", filepath.Join(dir, "missing-device.properties")},
		{"LOG_UPLOAD_LOCK_FILE", lockPath},
	} {
		t.Setenv(kv.k, kv.v)
	}

	args, err := parseArgs([]string{"uploadlogsnow"})
	require.NoError(t, err)

	var buf bytes.Buffer
	code := run(log.NewLogfmtLogger(&buf), args)

	assert.Equal(t, exitFailure, code)

	output := buf.String()
	assert.Equal(t, 1, strings.Count(output, "msg=event"), "expected exactly one emitted event, got: %s", output)
	assert.Equal(t, 1, strings.Count(output, "code=16"), "expected exactly one MaintLoguploadInProgress event, got: %s", output)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "lock contention must not create any other file")
	assert.Equal(t, "log-upload.lock", entries[0].Name())
}
