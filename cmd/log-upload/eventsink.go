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
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/rdkcentral/dcm-agent-sub001/internal/events"
)

// logSink substitutes for the real IARM event transport, which stays
// external to this module: it records the event's name and code as a log
// line rather than sending it to a bus peer.
type logSink struct {
	logger log.Logger
}

func newLogSink(logger log.Logger) *logSink {
	return &logSink{logger: log.With(logger, "component", "eventsink")}
}

func (s *logSink) SendEvent(name string, code events.EventCode) {
	level.Info(s.logger).Log("msg", "event", "name", name, "code", int(code))
}
