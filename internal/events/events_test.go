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

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordedEvent struct {
	name string
	code EventCode
}

type fakeSink struct {
	events []recordedEvent
}

func (f *fakeSink) SendEvent(name string, code EventCode) {
	f.events = append(f.events, recordedEvent{name, code})
}

func TestUploadSuccessGatedOnBroadbandAndMaintenance(t *testing.T) {
	sink := &fakeSink{}
	e := NewEmitter(sink, "mediaclient", true, nil)
	e.UploadSuccess(SessionOutcome{})
	assert.Equal(t, []recordedEvent{
		{outcomeEventName, LogUploadSuccess},
		{"", MaintLoguploadComplete},
	}, sink.events)
}

func TestUploadSuccessNotGatedForBroadband(t *testing.T) {
	sink := &fakeSink{}
	e := NewEmitter(sink, "broadband", true, nil)
	e.UploadSuccess(SessionOutcome{})
	assert.Equal(t, []recordedEvent{{outcomeEventName, LogUploadSuccess}}, sink.events)
}

func TestUploadSuccessNotGatedWithoutMaintenance(t *testing.T) {
	sink := &fakeSink{}
	e := NewEmitter(sink, "mediaclient", false, nil)
	e.UploadSuccess(SessionOutcome{})
	assert.Equal(t, []recordedEvent{{outcomeEventName, LogUploadSuccess}}, sink.events)
}

func TestPrivacyAbortSendsMaintenanceCompleteNotError(t *testing.T) {
	sink := &fakeSink{}
	e := NewEmitter(sink, "mediaclient", true, nil)
	e.PrivacyAbort()
	assert.Equal(t, []recordedEvent{{"", MaintLoguploadComplete}}, sink.events)
}

func TestNoLogsOnDemandIgnoresDeviceType(t *testing.T) {
	sink := &fakeSink{}
	e := NewEmitter(sink, "broadband", true, nil)
	e.NoLogsOnDemand()
	assert.Equal(t, []recordedEvent{{"", MaintLoguploadComplete}}, sink.events)
}

func TestNoLogsRebootGatedOnDeviceType(t *testing.T) {
	sink := &fakeSink{}
	e := NewEmitter(sink, "broadband", true, nil)
	e.NoLogsReboot()
	assert.Empty(t, sink.events)
}

func TestUploadAbortedAlwaysSendsMaintenanceError(t *testing.T) {
	sink := &fakeSink{}
	e := NewEmitter(sink, "broadband", false, nil)
	e.UploadAborted()
	assert.Equal(t, []recordedEvent{
		{outcomeEventName, LogUploadAborted},
		{"", MaintLoguploadError},
	}, sink.events)
}

func TestNilSinkDoesNotPanic(t *testing.T) {
	e := NewEmitter(nil, "mediaclient", true, nil)
	assert.NotPanics(t, func() { e.UploadSuccess(SessionOutcome{}) })
}
