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

// Package bus mediates the two inbound configuration events and the one
// outbound reload event the daemon exchanges with its message-bus peer,
// plus an fsnotify-based filesystem fallback for environments where the
// peer cannot be reached.
//
// The real transport (rbus) is never imported here: Client is a narrow
// interface the caller supplies, keeping the wire protocol external to
// this module the same way the daemon's production rbus handle is
// external to the distilled logic it drives.
package bus

import (
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// Event names exchanged with the peer, carried verbatim from the bus
// transport's event catalogue.
const (
	EventSetConfig     = "Device.DCM.Setconfig"
	EventProcessConfig = "Device.DCM.Processconfig"
	EventReload        = "Device.X_RDKCENTREL-COM.Reloadconfig"
)

// payloadKeySetConfig is the key under which SetConfig's payload carries
// the configuration document's filesystem path.
const payloadKeySetConfig = "dcmSetConfig"

// Client is the narrow surface this package needs from the bus transport.
// A production binary supplies an implementation backed by rbus; tests
// supply an in-memory fake.
type Client interface {
	Subscribe(event string, handler func(payload map[string]interface{})) error
	Unsubscribe(event string) error
	Publish(event string) error
}

// Gateway tracks the readiness and session state the daemon derives from
// bus events: the current configuration document path, the level-triggered
// "please reprocess" latch, and whether the outbound Reload subscription
// has been acknowledged.
type Gateway struct {
	client Client
	logger log.Logger

	mu                sync.Mutex
	confPath          string
	processRequested  bool
	eventSubReady     bool
	reloadPublished   bool
}

// New wraps client with the daemon's event handling.
func New(client Client, logger log.Logger) *Gateway {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Gateway{client: client, logger: log.With(logger, "component", "bus")}
}

// Start subscribes to SetConfig and ProcessConfig. It does not publish
// Reload; OnReloadSubAck publishes it once the peer has acknowledged the
// subscription.
func (g *Gateway) Start() error {
	if err := g.client.Subscribe(EventSetConfig, g.handleSetConfig); err != nil {
		return errors.Wrap(err, "bus: subscribe SetConfig")
	}
	if err := g.client.Subscribe(EventProcessConfig, g.handleProcessConfig); err != nil {
		return errors.Wrap(err, "bus: subscribe ProcessConfig")
	}
	return nil
}

func (g *Gateway) handleSetConfig(payload map[string]interface{}) {
	v, ok := payload[payloadKeySetConfig]
	if !ok {
		level.Warn(g.logger).Log("msg", "SetConfig event missing path payload")
		return
	}
	path, ok := v.(string)
	if !ok || path == "" {
		level.Warn(g.logger).Log("msg", "SetConfig event payload not a string path")
		return
	}
	g.mu.Lock()
	g.confPath = path
	g.mu.Unlock()
	level.Info(g.logger).Log("msg", "configuration path received", "path", path)
}

func (g *Gateway) handleProcessConfig(map[string]interface{}) {
	g.mu.Lock()
	g.processRequested = true
	g.mu.Unlock()
	level.Info(g.logger).Log("msg", "process-config requested")
}

// OnReloadSubAck is the peer's asynchronous acknowledgment that the
// Reload event's subscription is live. Once ready, the daemon publishes
// Reload exactly once to ask the peer for a fresh configuration push.
func (g *Gateway) OnReloadSubAck(subscribed bool) {
	g.mu.Lock()
	g.eventSubReady = subscribed
	alreadyPublished := g.reloadPublished
	g.mu.Unlock()

	if !subscribed {
		level.Warn(g.logger).Log("msg", "reload subscription acknowledgment reported failure")
		return
	}
	if alreadyPublished {
		return
	}
	if err := g.client.Publish(EventReload); err != nil {
		level.Error(g.logger).Log("msg", "failed to publish reload event", "err", err)
		return
	}
	g.mu.Lock()
	g.reloadPublished = true
	g.mu.Unlock()
	level.Info(g.logger).Log("msg", "reload event published")
}

// Ready reports whether the Reload subscription has been acknowledged.
func (g *Gateway) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eventSubReady
}

// ConfigPath returns the most recently received configuration document
// path, and whether one has ever been received.
func (g *Gateway) ConfigPath() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.confPath, g.confPath != ""
}

// TakeProcessRequested atomically reads and clears the level-triggered
// process-requested latch set by ProcessConfig.
func (g *Gateway) TakeProcessRequested() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	requested := g.processRequested
	g.processRequested = false
	return requested
}

// Close unsubscribes from both inbound events. Errors are logged, not
// returned, so teardown is never blocked by a single failed unsubscribe.
func (g *Gateway) Close() {
	for _, event := range []string{EventSetConfig, EventProcessConfig} {
		if err := g.client.Unsubscribe(event); err != nil {
			level.Warn(g.logger).Log("msg", "unsubscribe failed during shutdown", "event", event, "err", err)
		}
	}
}
