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
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadctx"
)

// ErrUSBNotMounted is returned by USBDestination.Copy when MountPoint does
// not exist on the filesystem.
var ErrUSBNotMounted = errors.New("uploadengine: USB mount point not found")

// LocalCopyDestination writes a finished archive to local, non-HTTP storage
// instead of uploading it. cmd/usb-log-upload is its only caller: it builds
// the same tar.gz an HTTP session would, then hands it to a destination
// rather than a Path.
type LocalCopyDestination interface {
	// Copy places the archive built at archivePath under the destination
	// and returns the final path it was copied to.
	Copy(ctx *uploadctx.Context, archivePath string) (string, error)
}

// USBDestination implements LocalCopyDestination against a mounted USB
// drive's "Log" subdirectory, matching the legacy USB-upload tool: archives
// land at $MountPoint/Log/<mac>_Logs_<timestamp>.tgz.
type USBDestination struct {
	MountPoint string
}

// Copy validates the mount point, creates the destination directory if
// needed, and moves the archive into it. A cross-device rename falls back
// to a copy-then-remove, since the archive and the USB drive are commonly
// on different filesystems.
func (d USBDestination) Copy(ctx *uploadctx.Context, archivePath string) (string, error) {
	if _, err := os.Stat(d.MountPoint); err != nil {
		return "", errors.Wrapf(ErrUSBNotMounted, "%s", d.MountPoint)
	}

	logDir := filepath.Join(d.MountPoint, "Log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", errors.Wrap(err, "uploadengine: creating USB log directory")
	}

	destPath := filepath.Join(logDir, ctx.ArchiveFilename())
	if err := moveFile(archivePath, destPath); err != nil {
		return "", errors.Wrap(err, "uploadengine: moving archive to USB")
	}
	return destPath, nil
}

// moveFile renames src to dst, falling back to a copy-then-remove when the
// two paths are on different filesystems (os.Rename's EXDEV).
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
