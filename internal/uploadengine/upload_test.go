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

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.tgz")
	require.NoError(t, os.WriteFile(path, []byte("archive-bytes"), 0644))
	return path
}

func TestPathUploaderSucceedsOnFirstAttempt(t *testing.T) {
	var putReceived []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			io.WriteString(w, "http://"+r.Host+"/upload-here\n")
		case http.MethodPut:
			putReceived, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	u := &pathUploader{
		path:        PathDirect,
		endpoint:    srv.URL,
		archivePath: newArchive(t),
		logger:      log.NewNopLogger(),
	}
	success, attempts := u.run(context.Background())
	assert.True(t, success)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, "archive-bytes", string(putReceived))
}

func TestPathUploaderExhaustsBudgetOnRepeatedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := &pathUploader{
		path:        PathDirect,
		endpoint:    srv.URL,
		archivePath: newArchive(t),
		logger:      log.NewNopLogger(),
	}
	success, attempts := u.run(context.Background())
	assert.False(t, success)
	assert.Equal(t, 3, attempts)
}

func TestPathUploaderCodebigBudgetIsOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := &pathUploader{
		path:        PathCodebig,
		endpoint:    srv.URL,
		archivePath: newArchive(t),
		logger:      log.NewNopLogger(),
	}
	_, attempts := u.run(context.Background())
	assert.Equal(t, 1, attempts)
}

func TestPathUploaderSucceedsAfterTransientFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			calls++
			if calls < 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			io.WriteString(w, "http://"+r.Host+"/upload-here\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := &pathUploader{
		path:        PathDirect,
		endpoint:    srv.URL,
		archivePath: newArchive(t),
		logger:      log.NewNopLogger(),
	}
	success, attempts := u.run(context.Background())
	assert.True(t, success)
	assert.Equal(t, 2, attempts)
}

func TestIsLocalCertProblemDetectsTLSCertificateWording(t *testing.T) {
	err := &tlsLikeError{msg: "tls: failed to verify certificate: x509: certificate signed by unknown authority"}
	assert.True(t, isLocalCertProblem(err))
}

func TestIsLocalCertProblemFalseForPlainNetworkError(t *testing.T) {
	err := &tlsLikeError{msg: "dial tcp: connection refused"}
	assert.False(t, isLocalCertProblem(err))
}

type tlsLikeError struct{ msg string }

func (e *tlsLikeError) Error() string { return e.msg }
