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

package uploadctx

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/rdkcentral/dcm-agent-sub001/internal/confstore"
)

// PrivacyMode mirrors the TR-181 privacy-mode parameter's two legal values.
type PrivacyMode string

const (
	PrivacyShare      PrivacyMode = "SHARE"
	PrivacyDoNotShare PrivacyMode = "DO_NOT_SHARE"
)

// ParamGetter is the narrow substitute for direct TR-181/rbus parameter
// access: one string lookup with an explicit found flag, so the real bus
// transport never has to be imported here.
type ParamGetter interface {
	GetParam(name string) (value string, found bool)
}

// TR-181 parameter names read during context initialization.
const (
	ParamCloudURL           = "Device.DeviceInfo.X_RDKCENTRAL-COM_RFC.Feature.LogUploadEndpoint.URL"
	ParamRebootDisable      = "Device.DeviceInfo.X_RDKCENTRAL-COM_RFC.Feature.UploadLogsOnUnscheduledReboot.Disable"
	ParamEncryptCloudUpload = "Device.DeviceInfo.X_RDKCENTRAL-COM_RFC.Feature.EncryptCloudUpload.Enable"
	ParamPrivacyMode        = "Device.X_RDKCENTRAL-COM_Privacy.UserPrivacy.LogUploadPrivacyMode"
	ParamRRDIssueType       = "Device.DeviceInfo.X_RDKCENTRAL-COM_RFC.Feature.RDKRemoteDebugger.IssueType"
)

// Paths collects every absolute filesystem path the engine touches.
type Paths struct {
	LogPath            string
	DCMLogPath         string
	PreviousLogPath    string
	PreviousBackupPath string
	DRILogPath         string
	RRDFile            string
	DirectMarker       string
	CodebigMarker      string
	LockFile           string
}

// Identity holds the device's immutable-for-the-session identity fields.
type Identity struct {
	MACRaw     string // e.g. "aa:bb:cc:dd:ee:ff"
	MACCompact string // same, separators stripped
	DeviceType string
	BuildType  string
}

// FeatureFlags are filesystem-probed capability markers.
type FeatureFlags struct {
	OCSPEnabled         bool
	OCSPStaplingEnabled bool
	TLSEnabled          bool // only ever true if the OS-release marker exists
}

// Context is the process-wide, immutable-after-init record the upload
// engine runs against, plus the three booleans reread at session start.
type Context struct {
	Paths    Paths
	Identity Identity
	Features FeatureFlags

	UploadURL         string
	EncryptionEnabled bool
	DirectBlockTime   time.Duration
	CBBlockTime       time.Duration

	PrivacyMode           PrivacyMode
	UnschedRebootDisabled bool

	TimestampPrefix string // e.g. "03-05-26-10-30AM"
	TimestampLong   string // e.g. "2026-03-05-10-30-00AM"

	DirectBlocked  bool
	CodebigBlocked bool
}

// Options configures Build beyond what Properties/ParamGetter already
// carry, letting tests substitute deterministic clocks and marker paths.
type Options struct {
	Properties   *confstore.Properties
	Params       ParamGetter
	MACSource    string // path to read the interface MAC from
	OSReleasePath string // existence gates TLS enablement
	OCSPMarkerPath string
	OCSPStaplingMarkerPath string
	Now          func() time.Time
}

// Build populates a Context in the documented order: properties and
// derived paths, device identity, TR-181 parameters, filesystem feature
// probes, block-marker state, then timestamps and filenames. Failure at
// any sub-step short-circuits with no partial Context returned.
func Build(paths Paths, opts Options) (*Context, error) {
	if opts.Properties == nil {
		return nil, errors.New("uploadctx: Properties is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ctx := &Context{Paths: paths}

	macRaw, err := loadMAC(opts.MACSource)
	if err != nil {
		return nil, errors.Wrap(err, "uploadctx: loading MAC address")
	}
	ctx.Identity = Identity{
		MACRaw:     macRaw,
		MACCompact: compactMAC(macRaw),
		DeviceType: opts.Properties.String(confstore.PropDeviceType, ""),
		BuildType:  opts.Properties.String(confstore.PropBuildType, ""),
	}

	ctx.UploadURL = ""
	ctx.PrivacyMode = PrivacyShare
	ctx.EncryptionEnabled = false
	if opts.Params != nil {
		if v, ok := opts.Params.GetParam(ParamCloudURL); ok {
			ctx.UploadURL = v
		}
		if v, ok := opts.Params.GetParam(ParamEncryptCloudUpload); ok {
			ctx.EncryptionEnabled = strings.EqualFold(v, "true")
		}
		if v, ok := opts.Params.GetParam(ParamPrivacyMode); ok && PrivacyMode(v) == PrivacyDoNotShare {
			ctx.PrivacyMode = PrivacyDoNotShare
		}
		if v, ok := opts.Params.GetParam(ParamRebootDisable); ok {
			ctx.UnschedRebootDisabled = strings.EqualFold(v, "true")
		}
	}

	ctx.Features = FeatureFlags{}
	if opts.OSReleasePath != "" && fileExists(opts.OSReleasePath) {
		ctx.Features.TLSEnabled = true
	}
	ctx.Features.OCSPEnabled = opts.OCSPMarkerPath != "" && fileExists(opts.OCSPMarkerPath)
	ctx.Features.OCSPStaplingEnabled = opts.OCSPStaplingMarkerPath != "" && fileExists(opts.OCSPStaplingMarkerPath)

	ctx.DirectBlockTime = time.Duration(opts.Properties.DirectBlockTimeSeconds()) * time.Second
	ctx.CBBlockTime = time.Duration(opts.Properties.CBBlockTimeSeconds()) * time.Second

	nowT := now()
	ctx.DirectBlocked = BlockMarker{Path: paths.DirectMarker}.Blocked(ctx.DirectBlockTime, nowT)
	ctx.CodebigBlocked = BlockMarker{Path: paths.CodebigMarker}.Blocked(ctx.CBBlockTime, nowT)

	ctx.TimestampPrefix = nowT.Format("01-02-06-03-04PM")
	ctx.TimestampLong = nowT.Format("2006-01-02-15-04-05PM")

	return ctx, nil
}

func loadMAC(path string) (string, error) {
	if path == "" {
		return "00:00:00:00:00:00", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "00:00:00:00:00:00", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func compactMAC(mac string) string {
	return strings.ReplaceAll(mac, ":", "")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ArchiveFilename returns the standard archive name for this session:
// "<mac>_Logs_<MM-DD-YY-HH-MMAM|PM>.tgz".
func (c *Context) ArchiveFilename() string {
	return c.Identity.MACCompact + "_Logs_" + c.TimestampPrefix + ".tgz"
}

// DRIArchiveFilename returns the DRI sub-bundle variant of ArchiveFilename.
func (c *Context) DRIArchiveFilename() string {
	return c.Identity.MACCompact + "_Logs_DRI_" + c.TimestampPrefix + ".tgz"
}

// ArchivePath joins the log path with ArchiveFilename.
func (c *Context) ArchivePath() string {
	return filepath.Join(c.Paths.LogPath, c.ArchiveFilename())
}
