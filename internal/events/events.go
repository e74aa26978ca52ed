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

// Package events gates and emits the upload engine's best-effort outcome
// and maintenance events. The concrete transport (IARM) stays external:
// EventSink is the narrow interface a production binary wires to the real
// event sender.
package events

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// EventCode mirrors the transport's integer event codes.
type EventCode int

const (
	LogUploadSuccess EventCode = 0
	LogUploadFailed  EventCode = 1
	LogUploadAborted EventCode = 2

	MaintLoguploadComplete   EventCode = 4
	MaintLoguploadError      EventCode = 5
	MaintLoguploadInProgress EventCode = 16
)

// EventSink is the narrow surface this package needs from the real event
// transport. A production binary wires this to the IARM event sender;
// tests use an in-memory recorder.
type EventSink interface {
	SendEvent(name string, code EventCode)
}

// outcomeEventName is the single outcome-event name the source emits
// under, regardless of which outcome it carries.
const outcomeEventName = "LogUploadEvent"

// SessionOutcome is the minimal view of an upload session's result this
// package needs to decide which events to emit.
type SessionOutcome struct {
	UsedFallback    bool
	DirectAttempts  int
	CodebigAttempts int
}

// Emitter gates event emission by device type and the ENABLE_MAINTENANCE
// property, as the source's is_device_broadband/is_maintenance_enabled
// checks do.
type Emitter struct {
	sink               EventSink
	logger             log.Logger
	deviceIsBroadband  bool
	maintenanceEnabled bool
}

// NewEmitter builds an Emitter gated by the device's type and the
// ENABLE_MAINTENANCE platform property.
func NewEmitter(sink EventSink, deviceType string, maintenanceEnabled bool, logger log.Logger) *Emitter {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Emitter{
		sink:               sink,
		logger:             log.With(logger, "component", "events"),
		deviceIsBroadband:  deviceType == "broadband",
		maintenanceEnabled: maintenanceEnabled,
	}
}

func (e *Emitter) send(name string, code EventCode) {
	if e.sink == nil {
		level.Warn(e.logger).Log("msg", "no event sink configured, dropping event", "name", name, "code", code)
		return
	}
	e.sink.SendEvent(name, code)
}

func (e *Emitter) maintenanceGated() bool {
	return !e.deviceIsBroadband && e.maintenanceEnabled
}

// PrivacyAbort emits the maintenance-complete event the source sends for
// a privacy-mode abort (not an error code, despite being an abort).
func (e *Emitter) PrivacyAbort() {
	level.Info(e.logger).Log("msg", "upload aborted due to privacy mode")
	e.send("", MaintLoguploadComplete)
}

// NoLogsReboot is emitted when the log directory was empty on a reboot
// trigger; gated on both device type and maintenance enablement.
func (e *Emitter) NoLogsReboot() {
	level.Info(e.logger).Log("msg", "log directory empty, skipping reboot-triggered upload")
	if e.maintenanceGated() {
		e.send("", MaintLoguploadComplete)
	}
}

// NoLogsOnDemand is emitted when the log directory was empty on an
// on-demand trigger; gated only on maintenance enablement.
func (e *Emitter) NoLogsOnDemand() {
	level.Info(e.logger).Log("msg", "log directory empty, skipping on-demand upload")
	if e.maintenanceEnabled {
		e.send("", MaintLoguploadComplete)
	}
}

// UploadSuccess emits the outcome success event, plus a gated
// maintenance-complete event.
func (e *Emitter) UploadSuccess(outcome SessionOutcome) {
	path := "Direct"
	if outcome.UsedFallback {
		path = "CodeBig"
	}
	level.Info(e.logger).Log("msg", "upload completed successfully", "path", path,
		"direct_attempts", outcome.DirectAttempts, "codebig_attempts", outcome.CodebigAttempts)
	e.send(outcomeEventName, LogUploadSuccess)
	if e.maintenanceGated() {
		e.send("", MaintLoguploadComplete)
	}
}

// UploadFailure emits the outcome failure event, plus a gated
// maintenance-error event.
func (e *Emitter) UploadFailure(outcome SessionOutcome) {
	level.Error(e.logger).Log("msg", "upload failed", "direct_attempts", outcome.DirectAttempts,
		"codebig_attempts", outcome.CodebigAttempts)
	e.send(outcomeEventName, LogUploadFailed)
	if e.maintenanceGated() {
		e.send("", MaintLoguploadError)
	}
}

// UploadAborted emits the abort outcome event plus an ungated
// maintenance-error event.
func (e *Emitter) UploadAborted() {
	level.Warn(e.logger).Log("msg", "upload operation was aborted")
	e.send(outcomeEventName, LogUploadAborted)
	e.send("", MaintLoguploadError)
}

// FolderMissing emits an ungated maintenance-error event for a missing
// required folder.
func (e *Emitter) FolderMissing() {
	level.Error(e.logger).Log("msg", "required folder missing for log upload")
	e.send("", MaintLoguploadError)
}

// LockBusy emits an ungated maintenance-in-progress event when the
// engine's singleton lock could not be acquired.
func (e *Emitter) LockBusy() {
	level.Warn(e.logger).Log("msg", "another upload already in progress")
	e.send("", MaintLoguploadInProgress)
}

// Fallback logs the primary-to-fallback path switch. The source does not
// emit a distinct bus/IARM event for this, only a log line.
func (e *Emitter) Fallback(from, to string) {
	level.Info(e.logger).Log("msg", "upload fallback", "from", from, "to", to)
}
