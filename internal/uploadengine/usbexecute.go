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
	"errors"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadctx"
)

// ExecuteLocalCopy runs the manual-trigger archive-and-copy session used by
// cmd/usb-log-upload: it always builds a fresh archive from the live log
// directory (no RRD, no privacy-mode check, no HTTP upload cycle) and hands
// it to dest instead of a Path. Mirrors the always-manual-trigger legacy
// tool, which only ever archives and moves, never uploads.
//
// Exit codes: 0 success, 2 if dest rejects the destination as unavailable
// (ErrUSBNotMounted), 3 for any other archive or copy failure.
func (e *Engine) ExecuteLocalCopy(uctx *uploadctx.Context, dest LocalCopyDestination) (*SessionState, int) {
	logger := e.logger()
	now := e.Now
	if now == nil {
		now = time.Now
	}

	session := &SessionState{Trigger: TriggerManual, Strategy: StrategyOnDemand, ID: newSessionID(now())}
	logger = log.With(logger, "session", session.ID)

	if err := prepareArchive(uctx, session, ""); err != nil {
		if errors.Is(err, ErrNoLogs) {
			e.emitNoLogs(session)
			session.Success = true
			return session, exitCodeSuccess
		}
		level.Error(logger).Log("msg", "archive preparation failed", "err", err)
		if e.Emitter != nil {
			e.Emitter.UploadFailure(session.outcome())
		}
		return session, exitCodeWritingError
	}

	destPath, err := dest.Copy(uctx, session.ArchivePath)
	if err != nil {
		level.Error(logger).Log("msg", "copying archive to destination failed", "err", err)
		if e.Emitter != nil {
			e.Emitter.UploadFailure(session.outcome())
		}
		if errors.Is(err, ErrUSBNotMounted) {
			return session, exitCodeAborted
		}
		return session, exitCodeWritingError
	}

	level.Info(logger).Log("msg", "archive copied", "path", destPath)
	session.ArchivePath = destPath
	session.Success = true
	if e.Emitter != nil {
		e.Emitter.UploadSuccess(session.outcome())
	}
	return session, exitCodeSuccess
}
