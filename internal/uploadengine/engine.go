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
	"context"
	"errors"
	"math/rand"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/ulid"

	"github.com/rdkcentral/dcm-agent-sub001/internal/certselect"
	"github.com/rdkcentral/dcm-agent-sub001/internal/events"
	"github.com/rdkcentral/dcm-agent-sub001/internal/metrics"
	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadctx"
)

// Engine drives one complete upload session: strategy selection, archive
// preparation, the two-path upload cycle, and finalization. It holds no
// per-session state itself; every call to Execute builds a fresh
// SessionState.
type Engine struct {
	Selector     certselect.Selector
	CodebigProbe CodebigProbe
	Emitter      *events.Emitter
	Metrics      *metrics.Metrics
	Logger       log.Logger

	ConnectTimeout time.Duration
	TotalTimeout   time.Duration

	// Now is overridable for deterministic tests.
	Now func() time.Time
}

// Execute runs strategy selection through finalization and returns the
// documented process exit code: 0 success (including a privacy abort and
// the no-logs case), 1 upload failure, 3 when archive preparation fails.
func (e *Engine) Execute(ctx context.Context, uctx *uploadctx.Context, flags Flags, rrdFile string) (*SessionState, int) {
	logger := e.logger()
	now := e.Now
	if now == nil {
		now = time.Now
	}

	session := &SessionState{Trigger: flags.Trigger, ID: newSessionID(now())}
	session.Strategy = SelectStrategy(uctx, flags)
	logger = log.With(logger, "session", session.ID)
	level.Info(logger).Log("msg", "strategy selected", "strategy", session.Strategy, "trigger", flags.Trigger)

	if session.Strategy == StrategyPrivacyAbort {
		if err := truncateDirectory(uctx.Paths.LogPath); err != nil {
			level.Error(logger).Log("msg", "privacy truncation failed", "err", err)
		}
		if e.Emitter != nil {
			e.Emitter.PrivacyAbort()
		}
		session.Success = true
		return session, exitCodeSuccess
	}

	if err := prepareArchive(uctx, session, rrdFile); err != nil {
		if errors.Is(err, ErrNoLogs) {
			e.emitNoLogs(session)
			session.Success = true
			return session, 0
		}
		level.Error(logger).Log("msg", "archive preparation failed", "err", err)
		if e.Emitter != nil {
			e.Emitter.UploadFailure(session.outcome())
		}
		return session, exitCodeWritingError
	}
	if e.Metrics != nil {
		if info, err := os.Stat(session.ArchivePath); err == nil {
			e.Metrics.ArchiveBytes.Observe(float64(info.Size()))
		}
	}

	codebigBlocked := resolveCodebigBlocked(ctx, uctx.CodebigBlocked, e.CodebigProbe, logger)
	session.Primary, session.Fallback = decidePaths(uctx.DirectBlocked, codebigBlocked)

	success := e.runCycle(ctx, uctx, session, logger)
	session.Success = success

	e.finalize(uctx, session, now(), logger)

	outcomeLabel := "failure"
	if success {
		outcomeLabel = "success"
		if e.Emitter != nil {
			e.Emitter.UploadSuccess(session.outcome())
		}
	} else if e.Emitter != nil {
		e.Emitter.UploadFailure(session.outcome())
	}
	if e.Metrics != nil {
		e.Metrics.UploadOutcomes.WithLabelValues(outcomeLabel).Inc()
	}
	return session, session.ExitCode()
}

// runCycle walks primary then (on failure) fallback, each under its own
// retry budget.
func (e *Engine) runCycle(ctx context.Context, uctx *uploadctx.Context, session *SessionState, logger log.Logger) bool {
	if session.Primary == PathNone {
		level.Error(logger).Log("msg", "no upload path available, both direct and codebig blocked")
		return false
	}

	if e.attemptPath(ctx, uctx, session, session.Primary, logger) {
		return true
	}

	if session.Fallback == PathNone {
		return false
	}

	session.UsedFallback = true
	if e.Emitter != nil {
		e.Emitter.Fallback(session.Primary.String(), session.Fallback.String())
	}
	return e.attemptPath(ctx, uctx, session, session.Fallback, logger)
}

func (e *Engine) attemptPath(ctx context.Context, uctx *uploadctx.Context, session *SessionState, path Path, logger log.Logger) bool {
	endpoint, err := e.endpointFor(ctx, uctx, path)
	if err != nil {
		level.Error(logger).Log("msg", "no endpoint available for path", "path", path, "err", err)
		return false
	}

	uploader := &pathUploader{
		path:           path,
		endpoint:       endpoint,
		archivePath:    session.ArchivePath,
		selector:       e.Selector,
		tlsEnabled:     uctx.Features.TLSEnabled,
		ocspStapling:   uctx.Features.OCSPStaplingEnabled,
		connectTimeout: e.ConnectTimeout,
		totalTimeout:   e.TotalTimeout,
		logger:         log.With(logger, "path", path.String()),
	}
	success, attempts := uploader.run(ctx)

	switch path {
	case PathDirect:
		session.DirectAttempts += attempts
	case PathCodebig:
		session.CodebigAttempts += attempts
	}
	if e.Metrics != nil {
		e.Metrics.UploadAttempts.WithLabelValues(path.String()).Add(float64(attempts))
	}
	return success
}

func (e *Engine) endpointFor(ctx context.Context, uctx *uploadctx.Context, path Path) (string, error) {
	if path == PathDirect {
		if uctx.UploadURL == "" {
			return "", errNoEndpoint
		}
		return uctx.UploadURL, nil
	}
	if e.CodebigProbe == nil {
		return "", errNoEndpoint
	}
	return e.CodebigProbe.Endpoint(ctx)
}

func (e *Engine) emitNoLogs(session *SessionState) {
	if e.Emitter == nil {
		return
	}
	switch session.Strategy {
	case StrategyReboot:
		e.Emitter.NoLogsReboot()
	default:
		e.Emitter.NoLogsOnDemand()
	}
}

func (e *Engine) logger() log.Logger {
	if e.Logger == nil {
		return log.NewNopLogger()
	}
	return log.With(e.Logger, "component", "uploadengine")
}

// newSessionID mints a correlation ID for log lines spanning one upload
// session, the same construction the teacher's GCM promtest helper uses
// for test-run IDs.
func newSessionID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), rand.New(rand.NewSource(at.UnixNano()))).String()
}

func (s *SessionState) outcome() events.SessionOutcome {
	return events.SessionOutcome{
		UsedFallback:    s.UsedFallback,
		DirectAttempts:  s.DirectAttempts,
		CodebigAttempts: s.CodebigAttempts,
	}
}
