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

package bus

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

func statModTime(path string) (time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// FileWatcher supplements bus events with a direct filesystem watch on the
// configuration document's directory, for the case where the bus peer
// never delivers SetConfig/ProcessConfig (bus unavailable, peer restart
// racing the daemon's own startup). It is deliberately aggressive about
// re-checking rather than trusting fsnotify alone to never miss an event.
type FileWatcher struct {
	path          string
	watchInterval time.Duration
	onChange      func(path string)
	logger        log.Logger
}

// NewFileWatcher watches path's containing directory for create/write
// events naming path, additionally polling at watchInterval in case
// fsnotify misses the event (the same aggressive-refresh precaution the
// reload watcher this is grounded on takes).
func NewFileWatcher(path string, watchInterval time.Duration, onChange func(path string), logger log.Logger) *FileWatcher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if watchInterval <= 0 {
		watchInterval = 10 * time.Second
	}
	return &FileWatcher{
		path:          path,
		watchInterval: watchInterval,
		onChange:      onChange,
		logger:        log.With(logger, "component", "bus.filewatcher"),
	}
}

// Watch blocks until ctx is canceled, invoking onChange whenever path is
// created or written, either observed directly via fsnotify or discovered
// by the periodic poll.
func (w *FileWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "bus: creating file watcher")
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "bus: watching directory %s", dir)
	}

	ticker := time.NewTicker(w.watchInterval)
	defer ticker.Stop()

	var lastModTime time.Time
	check := func() {
		mt, ok := statModTime(w.path)
		if !ok || mt.Equal(lastModTime) {
			return
		}
		lastModTime = mt
		level.Debug(w.logger).Log("msg", "configuration file changed", "path", w.path)
		w.onChange(w.path)
	}
	check()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				check()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			level.Warn(w.logger).Log("msg", "file watcher error", "err", err)
		case <-ticker.C:
			check()
		}
	}
}
