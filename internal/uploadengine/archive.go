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
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadctx"
)

// ErrNoLogs is returned by prepareArchive when the resolved source
// directory has no regular files to collect. Callers translate this into
// the strategy-specific "no logs" event (NoLogsReboot/NoLogsOnDemand)
// rather than an upload failure.
var ErrNoLogs = errors.New("uploadengine: no logs to archive")

// sourceDirFor resolves the directory an archive is built from, per
// strategy: a reboot-triggered upload reads the previous-boot log
// directory, everything else reads the live log directory.
func sourceDirFor(strategy Strategy, ctx *uploadctx.Context) string {
	if strategy == StrategyReboot {
		return ctx.Paths.PreviousLogPath
	}
	return ctx.Paths.LogPath
}

// requiresLogCheck reports whether a strategy checks its source directory
// for emptiness before archiving. Per the source's comments, the on-demand
// and reboot paths each check their own directory; the DCM/non-DCM paths
// do not and archive whatever is present, even nothing.
func requiresLogCheck(strategy Strategy) bool {
	return strategy == StrategyOnDemand || strategy == StrategyReboot
}

// prepareArchive resolves the source directory for session.Strategy,
// builds a single tar.gz of its regular files (plus the DRI sub-bundle,
// always collected, and PCAP files, collected only for mediaclient
// devices), and records the resulting path on session. RRD sessions reuse
// the caller-provided file verbatim and skip collection entirely.
func prepareArchive(ctx *uploadctx.Context, session *SessionState, rrdFile string) error {
	if session.Strategy == StrategyRRD {
		if rrdFile == "" {
			return errors.New("uploadengine: RRD strategy requires an archive file")
		}
		if _, err := os.Stat(rrdFile); err != nil {
			return errors.Wrap(err, "uploadengine: RRD archive file")
		}
		session.ArchivePath = rrdFile
		return nil
	}

	sourceDir := sourceDirFor(session.Strategy, ctx)
	entries, err := regularFiles(sourceDir)
	if err != nil {
		return errors.Wrapf(err, "uploadengine: reading source directory %s", sourceDir)
	}
	if len(entries) == 0 && requiresLogCheck(session.Strategy) {
		return ErrNoLogs
	}

	includePCAP := ctx.Identity.DeviceType == "mediaclient"
	archivePath := ctx.ArchivePath()
	if err := writeTarGz(archivePath, sourceDir, entries, ctx.Paths.DRILogPath, includePCAP); err != nil {
		return errors.Wrap(err, "uploadengine: building archive")
	}
	session.ArchivePath = archivePath
	return nil
}

// regularFiles lists the non-recursive regular files (symlinks excluded)
// directly inside dir.
func regularFiles(dir string) ([]os.DirEntry, error) {
	all, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []os.DirEntry
	for _, e := range all {
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// writeTarGz packages sourceDir's regular files, plus the DRI sub-bundle
// (always) and *.pcap files (only when includePCAP), into a single
// gzip-compressed tar at destPath.
func writeTarGz(destPath, sourceDir string, entries []os.DirEntry, driDir string, includePCAP bool) error {
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	for _, e := range entries {
		if !includePCAP && filepath.Ext(e.Name()) == ".pcap" {
			continue
		}
		if err := addFileToTar(tw, filepath.Join(sourceDir, e.Name()), e.Name()); err != nil {
			return err
		}
	}

	if driDir != "" {
		if driEntries, err := regularFiles(driDir); err == nil {
			for _, e := range driEntries {
				archiveName := filepath.Join("drilogs", e.Name())
				if err := addFileToTar(tw, filepath.Join(driDir, e.Name()), archiveName); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func addFileToTar(tw *tar.Writer, srcPath, archiveName string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = archiveName
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
