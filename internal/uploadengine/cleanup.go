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

package uploadengine

import (
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadctx"
)

// knownTempFiles are removed unconditionally after every session,
// regardless of outcome.
var knownTempFiles = []string{"/tmp/httpresult.txt"}

// backupFolderPattern matches the timestamped backup-folder naming
// convention, with an optional "-logbackup" suffix.
var backupFolderPattern = regexp.MustCompile(`^\d{2}-\d{2}-\d{2}-\d{2}-\d{2}(AM|PM)(-logbackup)?$`)

// defaultBackupRetentionDays is the default age (in days) past which a
// timestamped backup folder is pruned.
const defaultBackupRetentionDays = 3

// finalize applies the block-marker rules, deletes the archive on
// success, and removes known temporary files. Retention sweeps
// (PruneBackupFolders, PruneStaleArchives) are run separately since they
// operate over the whole log tree rather than this one session.
func (e *Engine) finalize(uctx *uploadctx.Context, session *SessionState, now time.Time, logger log.Logger) {
	if (session.UsedFallback || session.CodebigAttempts > 0) && session.Success {
		if err := (uploadctx.BlockMarker{Path: uctx.Paths.DirectMarker}).Touch(); err != nil {
			level.Warn(logger).Log("msg", "failed to refresh direct block marker", "err", err)
		} else if e.Metrics != nil {
			e.Metrics.BlockMarkerSets.WithLabelValues("direct").Inc()
		}
	}
	if !session.Success && session.CodebigAttempts > 0 {
		if err := (uploadctx.BlockMarker{Path: uctx.Paths.CodebigMarker}).Touch(); err != nil {
			level.Warn(logger).Log("msg", "failed to refresh codebig block marker", "err", err)
		} else if e.Metrics != nil {
			e.Metrics.BlockMarkerSets.WithLabelValues("codebig").Inc()
		}
	}

	if session.Success && session.Strategy != StrategyRRD {
		if err := os.Remove(session.ArchivePath); err != nil && !os.IsNotExist(err) {
			level.Warn(logger).Log("msg", "failed to remove uploaded archive", "path", session.ArchivePath, "err", err)
		}
	}

	for _, path := range knownTempFiles {
		_ = os.Remove(path) // ignore-missing: best-effort cleanup
	}
}

// truncateDirectory truncates every regular file directly inside dir to
// zero length, non-recursive, without following symlinks. Used for the
// privacy-mode abort path.
func truncateDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || info.Mode()&os.ModeSymlink != 0 || !info.Mode().IsRegular() {
			continue
		}
		_ = os.Truncate(filepath.Join(dir, e.Name()), 0)
	}
	return nil
}

// PruneBackupFolders removes timestamped backup folders under logPath
// older than maxAge (default 3 days when maxAge is zero).
func PruneBackupFolders(logPath string, maxAge time.Duration, now time.Time) error {
	if maxAge == 0 {
		maxAge = defaultBackupRetentionDays * 24 * time.Hour
	}
	entries, err := os.ReadDir(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if !e.IsDir() || !backupFolderPattern.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			_ = os.RemoveAll(filepath.Join(logPath, e.Name()))
		}
	}
	return nil
}

// PruneStaleArchives removes *.tgz files in logPath older than a day.
func PruneStaleArchives(logPath string, now time.Time) error {
	entries, err := os.ReadDir(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".tgz" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > 24*time.Hour {
			_ = os.Remove(filepath.Join(logPath, e.Name()))
		}
	}
	return nil
}
