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
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// Paths names the filesystem locations this package reads and writes.
type Paths struct {
	IncludeProperties string
	DeviceProperties  string
	TemporaryFile     string
	PersistentFile    string
	MaintenanceFile   string
}

// Store owns the platform property map and exposes the per-document
// processing cycle described by the configuration store's contract.
type Store struct {
	paths  Paths
	logger log.Logger
	props  *Properties
}

// Open loads the platform property files. It never fails on a missing
// property file; only I/O errors on an existing file are propagated.
func Open(paths Paths, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	props, err := LoadProperties(paths.IncludeProperties, paths.DeviceProperties)
	if err != nil {
		return nil, err
	}
	return &Store{paths: paths, logger: log.With(logger, "component", "confstore"), props: props}, nil
}

// Properties returns the loaded platform property map.
func (s *Store) Properties() *Properties {
	return s.props
}

// Process parses the configuration document at docPath and writes the
// derived artifacts. It returns success only when both flat files were
// written and, if the ENABLE_MAINTENANCE platform property is set and the
// document carries a check-cron, the maintenance file was written too; an
// empty check-cron skips the maintenance file with a warning. A JSON parse
// failure is fatal for this cycle: no defaults are substituted.
func (s *Store) Process(docPath string) (*Document, error) {
	doc, err := ParseDocumentFile(docPath)
	if err != nil {
		return nil, err
	}

	if err := WriteTemporary(s.paths.TemporaryFile, doc); err != nil {
		return nil, err
	}
	if err := WritePersistent(s.paths.PersistentFile, doc); err != nil {
		return nil, err
	}

	if s.props.Bool(PropEnableMaintenance) {
		if doc.CheckCron == "" {
			level.Warn(s.logger).Log("msg", "maintenance enabled but check-cron is empty, skipping maintenance file")
		} else if err := WriteMaintenanceFile(s.paths.MaintenanceFile, doc.CheckCron, doc.TimeZoneMode); err != nil {
			return nil, errors.Wrap(err, "confstore: maintenance file required but could not be written")
		}
	}

	level.Info(s.logger).Log("msg", "configuration document processed", "path", docPath,
		"upload_cron", doc.UploadCron, "check_cron", doc.CheckCron)
	return doc, nil
}
