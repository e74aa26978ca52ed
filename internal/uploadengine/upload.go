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
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/rdkcentral/dcm-agent-sub001/internal/certselect"
)

// budgetFor returns the retry budget for a path, per spec.md §4.F.4:
// Direct gets three attempts, CodeBig gets one.
func budgetFor(path Path) int {
	if path == PathCodebig {
		return 1
	}
	return 3
}

// DefaultConnectTimeout and DefaultTotalTimeout are the connect/total
// timeouts applied when a session doesn't override them, matching the
// TLS-path defaults of 10s/30s.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultTotalTimeout   = 30 * time.Second
)

// attemptResult is the outcome of one metadata-POST-plus-PUT attempt.
type attemptResult struct {
	success        bool
	localCertIssue bool
	httpStatus     int
	err            error
}

// pathUploader performs the upload cycle for a single path (Direct or
// CodeBig) against a configured endpoint.
type pathUploader struct {
	path           Path
	endpoint       string
	archivePath    string
	selector       certselect.Selector
	tlsEnabled     bool
	ocspStapling   bool
	connectTimeout time.Duration
	totalTimeout   time.Duration
	logger         log.Logger
}

// run drives the retry loop for one path up to its budget, returning
// whether the upload succeeded and how many attempts were counted
// (cert-retry attempts are not counted, per spec.md §4.F.4).
func (u *pathUploader) run(ctx context.Context) (success bool, attemptsUsed int) {
	budget := budgetFor(u.path)
	for attemptsUsed < budget {
		var cert certselect.Cert
		var err error
		if u.selector != nil {
			cert, err = u.selector.Current()
			if err != nil {
				level.Error(u.logger).Log("msg", "certificate selector failed", "err", err)
				attemptsUsed++
				continue
			}
		}

		res := u.attempt(ctx, cert)
		if res.localCertIssue && u.selector != nil && u.selector.RetryWithNext() {
			level.Warn(u.logger).Log("msg", "local certificate problem, retrying with next candidate", "path", u.path)
			continue
		}

		attemptsUsed++
		if res.err != nil {
			level.Warn(u.logger).Log("msg", "upload attempt failed", "path", u.path, "attempt", attemptsUsed, "err", res.err)
			continue
		}
		if res.success {
			return true, attemptsUsed
		}
		level.Warn(u.logger).Log("msg", "upload attempt did not succeed", "path", u.path, "attempt", attemptsUsed, "status", res.httpStatus)
	}
	return false, attemptsUsed
}

// attempt performs one metadata POST followed, on a 2xx response carrying
// a pre-signed URL, by the archive PUT.
func (u *pathUploader) attempt(ctx context.Context, cert certselect.Cert) attemptResult {
	client := u.buildClient(cert)

	presigned, status, err := u.metadataPost(ctx, client)
	if err != nil {
		return attemptResult{localCertIssue: isLocalCertProblem(err), err: err}
	}
	if status < 200 || status >= 300 || presigned == "" {
		return attemptResult{httpStatus: status}
	}

	putStatus, err := u.putArchive(ctx, client, presigned)
	if err != nil {
		return attemptResult{localCertIssue: isLocalCertProblem(err), err: err}
	}
	if putStatus < 200 || putStatus >= 300 {
		return attemptResult{httpStatus: putStatus}
	}
	return attemptResult{success: true, httpStatus: putStatus}
}

func (u *pathUploader) buildClient(cert certselect.Cert) *http.Client {
	transport := cleanhttp.DefaultPooledTransport()
	if u.tlsEnabled {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
		if cert.TLS.Certificate != nil {
			tlsConfig.Certificates = []tls.Certificate{cert.TLS}
		}
		if u.ocspStapling {
			tlsConfig.VerifyConnection = u.verifyOCSPStaple
		}
		transport.TLSClientConfig = tlsConfig
	}
	connect := u.connectTimeout
	if connect == 0 {
		connect = DefaultConnectTimeout
	}
	transport.TLSHandshakeTimeout = connect
	total := u.totalTimeout
	if total == 0 {
		total = DefaultTotalTimeout
	}
	return &http.Client{Transport: transport, Timeout: total}
}

// verifyOCSPStaple is installed as tls.Config.VerifyConnection when the
// device's OCSP-stapling feature flag is set. It only warns on a stapled
// response that isn't Good; it never fails the handshake, since an absent
// or unparseable staple is common and isn't itself proof of revocation.
func (u *pathUploader) verifyOCSPStaple(cs tls.ConnectionState) error {
	if len(cs.OCSPResponse) == 0 || len(cs.PeerCertificates) < 2 {
		return nil
	}
	good, err := certselect.CheckStapledResponse(cs.OCSPResponse, cs.PeerCertificates[0], cs.PeerCertificates[1])
	if err != nil {
		level.Warn(u.logger).Log("msg", "could not parse stapled OCSP response", "err", err)
		return nil
	}
	if !good {
		level.Warn(u.logger).Log("msg", "stapled OCSP response reports certificate not good", "path", u.path)
	}
	return nil
}

// metadataPost asks the endpoint to mint a pre-signed upload URL for the
// archive. The body carries at minimum filename=<basename>.
func (u *pathUploader) metadataPost(ctx context.Context, client *http.Client) (presignedURL string, status int, err error) {
	form := url.Values{}
	form.Set("filename", filepath.Base(u.archivePath))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	if scanner.Scan() {
		presignedURL = strings.TrimSpace(scanner.Text())
	}
	return presignedURL, resp.StatusCode, nil
}

// putArchive uploads the archive bytes to a pre-signed URL.
func (u *pathUploader) putArchive(ctx context.Context, client *http.Client, presignedURL string) (int, error) {
	f, err := os.Open(u.archivePath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, f)
	if err != nil {
		return 0, err
	}
	req.ContentLength = info.Size()

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// isLocalCertProblem reports whether err looks like the curl
// CURLE_SSL_CERTPROBLEM (58) analogue: a failure local to the client's own
// certificate rather than a network or server-side error. It returns true
// for any *tls.CertificateVerificationError and for any error whose text
// mentions both "certificate" and "tls"; it does not tell whether the
// rejected certificate was the client's own or the server's.
func isLocalCertProblem(err error) bool {
	if err == nil {
		return false
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "certificate") && strings.Contains(msg, "tls")
}

var errNoEndpoint = fmt.Errorf("uploadengine: no endpoint configured for path")
