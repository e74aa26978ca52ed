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
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rdkcentral/dcm-agent-sub001/internal/cron"
)

// WriteTemporary writes the flat "/tmp/DCMSettings.conf"-style file:
// top-level scalars as KEY=value, plus the uploadRepository object
// rendered as a single nested YAML-flavored block, including the upload
// URL line.
func WriteTemporary(path string, doc *Document) error {
	return writeFlat(path, doc, true)
}

// WritePersistent writes the "/opt/.DCMSettings.conf"-style file: the same
// shape as WriteTemporary but omitting the upload URL line.
func WritePersistent(path string, doc *Document) error {
	return writeFlat(path, doc, false)
}

func writeFlat(path string, doc *Document, includeURL bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "uploadProtocol=%s\n", doc.UploadProtocol)
	if includeURL {
		fmt.Fprintf(&b, "uploadURL=%s\n", doc.UploadURL)
	}
	fmt.Fprintf(&b, "uploadOnReboot=%s\n", strconv.FormatBool(doc.UploadOnReboot))
	fmt.Fprintf(&b, "uploadCron=%s\n", doc.UploadCron)
	fmt.Fprintf(&b, "checkCron=%s\n", doc.CheckCron)
	fmt.Fprintf(&b, "timeZoneMode=%s\n", doc.TimeZoneMode)

	if doc.UploadRepository != nil {
		nested, err := yaml.Marshal(map[string]interface{}{"uploadRepository": doc.UploadRepository})
		if err != nil {
			return errors.Wrap(err, "confstore: rendering nested uploadRepository block")
		}
		b.WriteString(string(nested))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return errors.Wrapf(err, "confstore: writing derived file %s", path)
	}
	return nil
}

// WriteMaintenanceFile writes the optional INI-style maintenance file
// derived from the firmware-check cron's minute and hour fields. It
// returns an error, and does not write the file, when either field is not
// a single non-negative integer (a list, range, step, or "*") — the
// source's undefined behavior for a non-scalar field is made an explicit,
// observable failure here rather than silently emitting garbage.
func WriteMaintenanceFile(path, checkCron, timeZoneMode string) error {
	minute, hour, err := firstTwoScalarFields(checkCron)
	if err != nil {
		return errors.Wrap(err, "confstore: maintenance file requires a scalar minute/hour check-cron")
	}
	body := fmt.Sprintf("start_hr=\"%d\"\nstart_min=\"%d\"\ntz_mode=\"%s\"\n", hour, minute, timeZoneMode)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return errors.Wrapf(err, "confstore: writing maintenance file %s", path)
	}
	return nil
}

// firstTwoScalarFields extracts the minute and hour fields of a 5- or
// 6-field cron expression, requiring each to parse as a single
// non-negative integer rather than a list, range, step, or wildcard.
func firstTwoScalarFields(checkCron string) (minute, hour int, err error) {
	fields := strings.Fields(checkCron)
	idx := 0
	switch len(fields) {
	case 5:
		idx = 0
	case 6:
		idx = 1
	default:
		return 0, 0, errors.Errorf("expected 5 or 6 fields, got %d", len(fields))
	}
	minute, err = strconv.Atoi(fields[idx])
	if err != nil {
		return 0, 0, errors.Wrapf(err, "minute field %q is not a plain integer", fields[idx])
	}
	hour, err = strconv.Atoi(fields[idx+1])
	if err != nil {
		return 0, 0, errors.Wrapf(err, "hour field %q is not a plain integer", fields[idx+1])
	}
	if minute < 0 || hour < 0 {
		return 0, 0, errors.New("minute and hour must be non-negative")
	}
	// Validate against the real parser too, so an in-range-but-impossible
	// value (e.g. minute 61 written as a bare scalar) is also rejected.
	if _, err := cron.Parse(checkCron); err != nil {
		return 0, 0, errors.Wrap(err, "check-cron failed full validation")
	}
	return minute, hour, nil
}
