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
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdkcentral/dcm-agent-sub001/internal/events"
	"github.com/rdkcentral/dcm-agent-sub001/internal/metrics"
	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadctx"
)

type recordedEvent struct {
	name string
	code events.EventCode
}

type fakeSink struct{ events []recordedEvent }

func (f *fakeSink) SendEvent(name string, code events.EventCode) {
	f.events = append(f.events, recordedEvent{name, code})
}

func newTestContext(t *testing.T, logPath, uploadURL string) *uploadctx.Context {
	t.Helper()
	return &uploadctx.Context{
		Paths: uploadctx.Paths{
			LogPath:       logPath,
			DirectMarker:  filepath.Join(logPath, ".lastdirectfail_upl"),
			CodebigMarker: filepath.Join(logPath, ".lastcodebigfail_upl"),
		},
		Identity:        uploadctx.Identity{MACCompact: "aabbccddeeff", DeviceType: "broadband"},
		UploadURL:       uploadURL,
		PrivacyMode:     uploadctx.PrivacyShare,
		DirectBlockTime: 24 * time.Hour,
		CBBlockTime:     30 * time.Minute,
		TimestampPrefix: "01-01-26-00-00AM",
	}
}

func TestExecutePrivacyAbortTruncatesFilesAndEmitsOneEvent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.log"), []byte("aaaaa"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.log"), []byte("aaaaaaaaaa"), 0644))

	ctx := &uploadctx.Context{
		Paths:       uploadctx.Paths{LogPath: dir},
		Identity:    uploadctx.Identity{DeviceType: "mediaclient"},
		PrivacyMode: uploadctx.PrivacyDoNotShare,
	}
	sink := &fakeSink{}
	e := &Engine{Emitter: events.NewEmitter(sink, ctx.Identity.DeviceType, true, nil)}

	session, code := e.Execute(context.Background(), ctx, Flags{DCMFlag: true}, "")
	assert.Equal(t, 0, code)
	assert.True(t, session.Success)
	assert.Equal(t, StrategyPrivacyAbort, session.Strategy)

	for _, name := range []string{"a.log", "b.log"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	}
	assert.Len(t, sink.events, 1)
	assert.Equal(t, events.MaintLoguploadComplete, sink.events[0].code)
}

func directSuccessServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			io.WriteString(w, "http://"+r.Host+"/put\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func TestExecuteDirectSuccessNoMarkersNoFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "messages.log"), []byte("hi"), 0644))

	srv := directSuccessServer(t)
	defer srv.Close()

	ctx := newTestContext(t, dir, srv.URL)
	e := &Engine{Metrics: metrics.New()}

	session, code := e.Execute(context.Background(), ctx, Flags{DCMFlag: true}, "")
	require.Equal(t, 0, code)
	assert.Equal(t, 1, session.DirectAttempts)
	assert.Equal(t, 0, session.CodebigAttempts)
	assert.False(t, session.UsedFallback)
	assert.NoFileExists(t, ctx.Paths.DirectMarker)
	assert.NoFileExists(t, ctx.Paths.CodebigMarker)
	assert.NoFileExists(t, session.ArchivePath)
}

func TestExecuteCodebigFallbackSuccess(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "messages.log"), []byte("hi"), 0644))

	directSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer directSrv.Close()
	codebigSrv := directSuccessServer(t)
	defer codebigSrv.Close()

	ctx := newTestContext(t, dir, directSrv.URL)
	e := &Engine{CodebigProbe: fakeProbe{available: true, endpoint: codebigSrv.URL}}

	session, code := e.Execute(context.Background(), ctx, Flags{DCMFlag: true}, "")
	require.Equal(t, 0, code)
	assert.Equal(t, 3, session.DirectAttempts)
	assert.Equal(t, 1, session.CodebigAttempts)
	assert.True(t, session.UsedFallback)
	assert.FileExists(t, ctx.Paths.DirectMarker)
	assert.NoFileExists(t, ctx.Paths.CodebigMarker)
}

func TestExecuteAllAttemptsFail(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "messages.log"), []byte("hi"), 0644))

	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failSrv.Close()

	ctx := newTestContext(t, dir, failSrv.URL)
	e := &Engine{CodebigProbe: fakeProbe{available: true, endpoint: failSrv.URL}}

	session, code := e.Execute(context.Background(), ctx, Flags{DCMFlag: true}, "")
	assert.Equal(t, 1, code)
	assert.Equal(t, 3, session.DirectAttempts)
	assert.Equal(t, 1, session.CodebigAttempts)
	assert.FileExists(t, ctx.Paths.CodebigMarker)
	assert.NoFileExists(t, ctx.Paths.DirectMarker)
	assert.FileExists(t, session.ArchivePath)
}

func TestExecuteBothPathsBlockedFailsWithoutAttempts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "messages.log"), []byte("hi"), 0644))

	ctx := newTestContext(t, dir, "http://example.invalid")
	ctx.DirectBlocked = true
	e := &Engine{CodebigProbe: fakeProbe{available: false}}

	session, code := e.Execute(context.Background(), ctx, Flags{DCMFlag: true}, "")
	assert.Equal(t, 1, code)
	assert.Equal(t, 0, session.DirectAttempts)
	assert.Equal(t, 0, session.CodebigAttempts)
}

func TestExecuteNoLogsOnDemandIsSuccessWithNoUpload(t *testing.T) {
	dir := t.TempDir()
	ctx := newTestContext(t, dir, "http://example.invalid")
	sink := &fakeSink{}
	e := &Engine{Emitter: events.NewEmitter(sink, "broadband", true, nil)}

	session, code := e.Execute(context.Background(), ctx, Flags{DCMFlag: true, Trigger: TriggerOnDemand}, "")
	assert.Equal(t, 0, code)
	assert.True(t, session.Success)
	assert.Empty(t, session.ArchivePath)
}
