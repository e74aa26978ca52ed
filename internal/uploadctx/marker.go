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

// Package uploadctx assembles the immutable-after-init record the upload
// engine runs against: paths, device identity, endpoint configuration, and
// the block-marker state read at session start.
package uploadctx

import (
	"os"
	"time"
)

// BlockMarker is a single marker file whose mtime records the instant of
// the last relevant failure (or, for the Direct marker, the instant
// CodeBig last succeeded).
type BlockMarker struct {
	Path string
}

// Blocked reports whether the marker exists and is younger than ttl. As a
// side effect, a marker older than ttl is deleted, matching the contract
// that stale markers are cleaned up the moment they're observed.
//
// The stat-then-decide-then-delete sequence all operates on one os.Stat
// result rather than re-statting, so a concurrent writer replacing the
// file between steps cannot be observed as a torn read.
func (m BlockMarker) Blocked(ttl time.Duration, now time.Time) bool {
	info, err := os.Lstat(m.Path)
	if err != nil {
		return false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		// Markers are plain files; a symlink in their place is never trusted.
		return false
	}
	age := now.Sub(info.ModTime())
	if age <= ttl {
		return true
	}
	_ = os.Remove(m.Path) // ignore-missing: another process may have raced us
	return false
}

// Touch creates or refreshes the marker's mtime to now, blocking the path
// for the caller's configured TTL starting from this instant.
func (m BlockMarker) Touch() error {
	f, err := os.OpenFile(m.Path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	now := time.Now()
	return os.Chtimes(m.Path, now, now)
}
