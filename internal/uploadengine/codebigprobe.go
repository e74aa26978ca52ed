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
	"net/http"
)

// HTTPCodebigProbe implements CodebigProbe against the device's configured
// CodeBig proxy bucket URL (the PROXY_BUCKET platform property), performing
// the once-per-session reachability check strategy_selector.c calls
// validate_codebig_access via a lightweight HEAD request.
type HTTPCodebigProbe struct {
	URL    string
	Client *http.Client
}

// Available reports whether the proxy bucket responds without a server
// error. A missing URL or any transport failure is treated as unavailable.
func (p *HTTPCodebigProbe) Available(ctx context.Context) bool {
	if p.URL == "" {
		return false
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// Endpoint returns the configured proxy bucket URL.
func (p *HTTPCodebigProbe) Endpoint(ctx context.Context) (string, error) {
	if p.URL == "" {
		return "", errNoEndpoint
	}
	return p.URL, nil
}
