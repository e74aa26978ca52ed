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

package bus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu        sync.Mutex
	handlers  map[string]func(map[string]interface{})
	published []string
	unsubbed  []string
	failOn    map[string]bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers: make(map[string]func(map[string]interface{})),
		failOn:   make(map[string]bool),
	}
}

func (f *fakeClient) Subscribe(event string, handler func(map[string]interface{})) error {
	if f.failOn[event] {
		return assertErr
	}
	f.mu.Lock()
	f.handlers[event] = handler
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) Unsubscribe(event string) error {
	f.mu.Lock()
	f.unsubbed = append(f.unsubbed, event)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) Publish(event string) error {
	f.mu.Lock()
	f.published = append(f.published, event)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) fire(event string, payload map[string]interface{}) {
	f.mu.Lock()
	h := f.handlers[event]
	f.mu.Unlock()
	if h != nil {
		h(payload)
	}
}

var assertErr = &staticErr{"subscribe failed"}

type staticErr struct{ msg string }

func (e *staticErr) Error() string { return e.msg }

func TestGatewaySetConfigCapturesPath(t *testing.T) {
	c := newFakeClient()
	g := New(c, nil)
	require.NoError(t, g.Start())

	c.fire(EventSetConfig, map[string]interface{}{payloadKeySetConfig: "/opt/dcm.properties.json"})

	path, ok := g.ConfigPath()
	require.True(t, ok)
	assert.Equal(t, "/opt/dcm.properties.json", path)
}

func TestGatewaySetConfigIgnoresMissingPayload(t *testing.T) {
	c := newFakeClient()
	g := New(c, nil)
	require.NoError(t, g.Start())

	c.fire(EventSetConfig, map[string]interface{}{})

	_, ok := g.ConfigPath()
	assert.False(t, ok)
}

func TestGatewayProcessConfigSetsLatch(t *testing.T) {
	c := newFakeClient()
	g := New(c, nil)
	require.NoError(t, g.Start())

	assert.False(t, g.TakeProcessRequested())
	c.fire(EventProcessConfig, nil)
	assert.True(t, g.TakeProcessRequested())
	// Latch is cleared once taken.
	assert.False(t, g.TakeProcessRequested())
}

func TestGatewayPublishesReloadOnlyOnceAfterAck(t *testing.T) {
	c := newFakeClient()
	g := New(c, nil)
	require.NoError(t, g.Start())

	assert.False(t, g.Ready())
	g.OnReloadSubAck(true)
	assert.True(t, g.Ready())
	g.OnReloadSubAck(true)

	assert.Equal(t, []string{EventReload}, c.published)
}

func TestGatewayDoesNotPublishOnFailedAck(t *testing.T) {
	c := newFakeClient()
	g := New(c, nil)
	require.NoError(t, g.Start())

	g.OnReloadSubAck(false)
	assert.False(t, g.Ready())
	assert.Empty(t, c.published)
}

func TestGatewayCloseUnsubscribesBothEvents(t *testing.T) {
	c := newFakeClient()
	g := New(c, nil)
	require.NoError(t, g.Start())

	g.Close()
	assert.ElementsMatch(t, []string{EventSetConfig, EventProcessConfig}, c.unsubbed)
}
