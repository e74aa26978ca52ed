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

package confstore

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Recognized ConfigurationDocument URN keys.
const (
	URNUploadProtocol = "urn:settings:LogUploadSettings:UploadRepository:uploadProtocol"
	URNUploadURL      = "urn:settings:LogUploadSettings:UploadRepository:URL"
	URNUploadOnReboot = "urn:settings:LogUploadSettings:UploadOnReboot"
	URNUploadCron     = "urn:settings:LogUploadSettings:UploadSchedule:cron"
	URNCheckCron      = "urn:settings:CheckSchedule:cron"
	URNTimeZoneMode   = "urn:settings:TimeZoneMode"
	urnTelemetry      = "urn:settings:TelemetryProfile"

	DefaultUploadProtocol = "HTTP"
	DefaultTimeZoneMode   = "Local Time"
)

// Document holds the recognized fields extracted from one configuration
// document cycle; everything else in the source JSON is discarded except
// the single nested "uploadRepository" object, preserved for the
// persistent derived file.
type Document struct {
	UploadProtocol   string
	UploadURL        string
	UploadOnReboot   bool
	UploadCron       string
	CheckCron        string
	TimeZoneMode     string
	UploadRepository map[string]interface{}
}

// ParseDocumentFile reads path, truncates any content from the first
// occurrence of the telemetry URN onward (closing the object with "}"),
// and parses the remainder as JSON. A parse failure is fatal for this
// cycle: no defaults are substituted and no partial Document is returned.
func ParseDocumentFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "confstore: reading configuration document %s", path)
	}
	return ParseDocument(raw)
}

// ParseDocument applies the telemetry-URN truncation and JSON parse to an
// in-memory document body.
func ParseDocument(raw []byte) (*Document, error) {
	truncated := truncateAtTelemetryURN(raw)

	var obj map[string]interface{}
	if err := json.Unmarshal(truncated, &obj); err != nil {
		return nil, errors.Wrap(err, "confstore: configuration document is not valid JSON")
	}

	doc := &Document{
		UploadProtocol: DefaultUploadProtocol,
		TimeZoneMode:   DefaultTimeZoneMode,
	}
	if v, ok := stringField(obj, URNUploadProtocol); ok {
		doc.UploadProtocol = v
	}
	if v, ok := stringField(obj, URNUploadURL); ok {
		doc.UploadURL = v
	}
	doc.UploadOnReboot = truthyField(obj, URNUploadOnReboot)
	if v, ok := stringField(obj, URNUploadCron); ok {
		doc.UploadCron = v
	}
	if v, ok := stringField(obj, URNCheckCron); ok {
		doc.CheckCron = v
	}
	if v, ok := stringField(obj, URNTimeZoneMode); ok {
		doc.TimeZoneMode = v
	}
	if v, ok := obj["uploadRepository"].(map[string]interface{}); ok {
		doc.UploadRepository = v
	}

	return doc, nil
}

// truncateAtTelemetryURN finds the first occurrence of the telemetry URN
// key and cuts the buffer there, then walks backward from that cut to the
// last unclosed top-level comma or brace so the remaining text is still a
// syntactically closeable JSON object, appending "}" to close it. If the
// URN never appears, raw is returned unchanged.
func truncateAtTelemetryURN(raw []byte) []byte {
	idx := strings.Index(string(raw), urnTelemetry)
	if idx < 0 {
		return raw
	}
	head := raw[:idx]
	// Back up over the dangling `"key":` (or preceding comma) that would
	// otherwise leave a trailing comma or an unterminated member.
	cut := strings.LastIndexByte(string(head), ',')
	if cut < 0 {
		cut = strings.LastIndexByte(string(head), '{')
		if cut < 0 {
			return append(append([]byte{}, head...), '}')
		}
		return append(append([]byte{}, head[:cut+1]...), '}')
	}
	return append(append([]byte{}, head[:cut]...), '}')
}

func stringField(obj map[string]interface{}, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// truthyField reports whether obj[key] is "1", 1, true, or the string
// "true" — the document's UploadOnReboot is documented as "0/1" but the
// source accepts any of these JSON encodings.
func truthyField(obj map[string]interface{}, key string) bool {
	v, ok := obj[key]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "1" || t == "true"
	case float64:
		return t != 0
	default:
		return false
	}
}
