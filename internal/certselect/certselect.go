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

// Package certselect provides the mTLS certificate selection contract the
// upload engine consults when an attempt fails with the MTLS
// local-certificate-problem status, plus a static-file implementation for
// deployments that pin a single client certificate.
package certselect

import (
	"crypto/tls"
	"crypto/x509"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ocsp"
)

// CurlMTLSLocalCertProblem is the curl CURLE_SSL_CERTPROBLEM status code
// that triggers a certificate-selector retry.
const CurlMTLSLocalCertProblem = 58

// Cert is a selected client certificate plus the engine name it should be
// loaded through, if any (empty for the default software engine).
type Cert struct {
	Name   string
	Engine string
	TLS    tls.Certificate
}

// Selector chooses an mTLS client certificate and decides whether a
// certificate-related failure is worth retrying with a different one.
type Selector interface {
	// Current returns the certificate to present for this attempt.
	Current() (Cert, error)
	// RetryWithNext is asked after a local-cert-problem failure; it
	// reports whether another candidate exists and, if so, advances to
	// it. A false result means the selector has exhausted its candidates.
	RetryWithNext() bool
}

// StaticSelector always returns the same certificate and never offers a
// retry candidate, the degenerate case of a single pinned deployment cert.
type StaticSelector struct {
	cert Cert
}

// NewStaticSelector loads a single certificate/key pair once at
// construction time.
func NewStaticSelector(certFile, keyFile string) (*StaticSelector, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "certselect: loading static certificate")
	}
	return &StaticSelector{cert: Cert{Name: certFile, TLS: cert}}, nil
}

func (s *StaticSelector) Current() (Cert, error) {
	return s.cert, nil
}

func (s *StaticSelector) RetryWithNext() bool {
	return false
}

// ListSelector rotates through a fixed, ordered list of candidate
// certificates, matching a deployment that pins several certs and wants
// the engine to fail over between them on a local cert problem.
type ListSelector struct {
	certs []Cert
	idx   int
}

// NewListSelector returns a selector starting at the first candidate.
func NewListSelector(certs []Cert) (*ListSelector, error) {
	if len(certs) == 0 {
		return nil, errors.New("certselect: at least one candidate certificate is required")
	}
	return &ListSelector{certs: certs}, nil
}

func (s *ListSelector) Current() (Cert, error) {
	return s.certs[s.idx], nil
}

func (s *ListSelector) RetryWithNext() bool {
	if s.idx+1 >= len(s.certs) {
		return false
	}
	s.idx++
	return true
}

// CheckStapledResponse parses a TLS-stapled OCSP response and reports
// whether the leaf certificate is still good. An empty staple is treated
// as "nothing to check" rather than an error, since stapling is opportunistic.
func CheckStapledResponse(staple []byte, leaf, issuer *x509.Certificate) (bool, error) {
	if len(staple) == 0 {
		return true, nil
	}
	resp, err := ocsp.ParseResponseForCert(staple, leaf, issuer)
	if err != nil {
		return false, errors.Wrap(err, "certselect: parsing stapled OCSP response")
	}
	return resp.Status == ocsp.Good, nil
}
