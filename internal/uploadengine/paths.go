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

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Path identifies an upload route.
type Path int

const (
	PathNone Path = iota
	PathDirect
	PathCodebig
)

func (p Path) String() string {
	switch p {
	case PathDirect:
		return "DIRECT"
	case PathCodebig:
		return "CODEBIG"
	default:
		return "NONE"
	}
}

// CodebigProbe checks, once per session, whether the CodeBig endpoint is
// reachable at all (a GetServiceUrl-style lookup in the source), and
// resolves the endpoint URL to upload through. A failed Available blocks
// CodeBig for this session only; it does not create a block-marker file.
type CodebigProbe interface {
	Available(ctx context.Context) bool
	Endpoint(ctx context.Context) (string, error)
}

// NoCodebigProbe always reports CodeBig unavailable with no endpoint, for
// deployments with no CodeBig service configured.
type NoCodebigProbe struct{}

func (NoCodebigProbe) Available(context.Context) bool { return false }

func (NoCodebigProbe) Endpoint(context.Context) (string, error) {
	return "", errNoEndpoint
}

// decidePaths implements the path-planning truth table: direct_blocked and
// codebig_blocked (already folded with the per-session probe result by the
// caller) determine primary/fallback.
func decidePaths(directBlocked, codebigBlocked bool) (primary, fallback Path) {
	switch {
	case !directBlocked && !codebigBlocked:
		return PathDirect, PathCodebig
	case directBlocked && !codebigBlocked:
		return PathCodebig, PathNone
	case !directBlocked && codebigBlocked:
		return PathDirect, PathNone
	default:
		return PathNone, PathNone
	}
}

// resolveCodebigBlocked folds the marker-derived block state with a
// once-per-session reachability probe: a failed probe blocks CodeBig for
// this session only, without touching the marker file.
func resolveCodebigBlocked(ctx context.Context, markerBlocked bool, probe CodebigProbe, logger log.Logger) bool {
	if markerBlocked {
		return true
	}
	if probe == nil {
		probe = NoCodebigProbe{}
	}
	if !probe.Available(ctx) {
		level.Warn(logger).Log("msg", "codebig access validation failed, blocking codebig for this session")
		return true
	}
	return false
}
