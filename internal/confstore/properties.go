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

// Package confstore loads platform property files, parses the bus-delivered
// configuration document, and writes the derived artifacts collaborators
// read back: two flat KEY=value files and an optional maintenance INI.
package confstore

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Recognized PlatformProperties keys and their documented defaults.
const (
	PropRDKPath           = "RDK_PATH"
	PropLogPath           = "LOG_PATH"
	PropDirectBlockTime   = "DIRECT_BLOCK_TIME"
	PropCBBlockTime       = "CB_BLOCK_TIME"
	PropDeviceType        = "DEVICE_TYPE"
	PropDeviceName        = "DEVICE_NAME"
	PropBuildType         = "BUILD_TYPE"
	PropEnableMaintenance = "ENABLE_MAINTENANCE"
	PropProxyBucket       = "PROXY_BUCKET"
	PropDCMLogPath        = "DCM_LOG_PATH"
	PropSyslogNGEnabled   = "SYSLOG_NG_ENABLED"

	DefaultLogPath         = "/opt/logs"
	DefaultDirectBlockTime = 86400
	DefaultCBBlockTime     = 1800
)

// Properties is the in-memory map built from the two well-known property
// files, last-file-wins.
type Properties struct {
	values map[string]string
}

// LoadProperties reads each path in order (missing files are skipped, not
// an error) as line-oriented KEY=VALUE, trimming surrounding quotes and a
// single trailing comma. A later file's key overwrites an earlier one's.
func LoadProperties(paths ...string) (*Properties, error) {
	p := &Properties{values: make(map[string]string)}
	for _, path := range paths {
		if err := p.mergeFile(path); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Properties) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "confstore: opening property file %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		p.values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "confstore: reading property file %s", path)
	}
	return nil
}

func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	if key == "" {
		return "", "", false
	}
	value = strings.TrimSpace(line[idx+1:])
	value = strings.TrimSuffix(value, ",")
	value = strings.TrimSpace(value)
	value = trimMatchingQuotes(value)
	return key, value, true
}

func trimMatchingQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Get returns the raw value for key and whether it was present.
func (p *Properties) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// String returns the value for key, or def if absent.
func (p *Properties) String(key, def string) string {
	if v, ok := p.values[key]; ok && v != "" {
		return v
	}
	return def
}

// Int returns the value for key parsed as an integer, or def if absent or
// unparsable.
func (p *Properties) Int(key string, def int) int {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool returns true only when key is present and equals "true"
// case-sensitively, matching the source's ENABLE_MAINTENANCE convention.
func (p *Properties) Bool(key string) bool {
	v, ok := p.values[key]
	return ok && v == "true"
}

// LogPath returns the configured log root, defaulting to /opt/logs.
func (p *Properties) LogPath() string {
	return p.String(PropLogPath, DefaultLogPath)
}

// DirectBlockTimeSeconds returns how long a successful CodeBig attempt
// suppresses the Direct path.
func (p *Properties) DirectBlockTimeSeconds() int {
	return p.Int(PropDirectBlockTime, DefaultDirectBlockTime)
}

// CBBlockTimeSeconds returns how long a failed CodeBig attempt suppresses
// CodeBig.
func (p *Properties) CBBlockTimeSeconds() int {
	return p.Int(PropCBBlockTime, DefaultCBBlockTime)
}
