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
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// fileBackedBus implements bus.Client for deployments where the rbus
// transport this package was written against is not present. It holds the
// handlers bus.Gateway subscribes with and lets the file watcher actor
// invoke them directly when the on-disk configuration document changes,
// standing in for the events a live rbus peer would otherwise deliver.
//
// A production build links this package against the real transport
// instead; fileBackedBus is the degraded-but-functional path, the same
// role the bus package's doc comment assigns to the fsnotify fallback.
type fileBackedBus struct {
	logger log.Logger

	mu       sync.Mutex
	handlers map[string]func(map[string]interface{})
}

func newFileBackedBus(logger log.Logger) *fileBackedBus {
	return &fileBackedBus{logger: logger, handlers: make(map[string]func(map[string]interface{}))}
}

func (b *fileBackedBus) Subscribe(event string, handler func(payload map[string]interface{})) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = handler
	return nil
}

func (b *fileBackedBus) Unsubscribe(event string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, event)
	return nil
}

func (b *fileBackedBus) Publish(event string) error {
	level.Debug(b.logger).Log("msg", "publish requested on file-backed bus, no peer to notify", "event", event)
	return nil
}

// deliver invokes the handler registered for event, if any. Callers use it
// to feed SetConfig/ProcessConfig into the gateway from the file watcher
// instead of a live bus peer.
func (b *fileBackedBus) deliver(event string, payload map[string]interface{}) {
	b.mu.Lock()
	handler := b.handlers[event]
	b.mu.Unlock()
	if handler != nil {
		handler(payload)
	}
}
