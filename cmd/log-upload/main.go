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

// Command log-upload runs a single end-to-end log-upload session: strategy
// selection, archive preparation, the two-path upload cycle, and
// finalization. It is meant to be invoked once per cron fire (by
// cmd/dcm-agent) or once interactively (the "uploadlogsnow" shorthand), not
// run as a long-lived process.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/rdkcentral/dcm-agent-sub001/internal/certselect"
	"github.com/rdkcentral/dcm-agent-sub001/internal/confstore"
	"github.com/rdkcentral/dcm-agent-sub001/internal/events"
	"github.com/rdkcentral/dcm-agent-sub001/internal/lockfile"
	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadctx"
	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadengine"
)

const (
	exitFailure     = 1
	exitInvalidArgs = 4
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	args, err := parseArgs(os.Args[1:])
	if err != nil {
		level.Error(logger).Log("msg", "invalid arguments", "err", err)
		os.Exit(exitInvalidArgs)
	}

	os.Exit(run(logger, args))
}

func run(logger log.Logger, args parsedArgs) int {
	props, err := confstore.LoadProperties(envOr("LOG_UPLOAD_INCLUDE_PROPERTIES", "/etc/include.properties"),
		envOr("LOG_UPLOAD_DEVICE_PROPERTIES", "/etc/device.properties"))
	if err != nil {
		level.Error(logger).Log("msg", "loading platform properties failed", "err", err)
		return exitFailure
	}

	lockPath := envOr("LOG_UPLOAD_LOCK_FILE", "/tmp/.log-upload.lock")
	lock, err := lockfile.AcquireExclusive(lockPath)
	if err != nil {
		if errors.Is(err, lockfile.ErrAlreadyLocked) {
			level.Warn(logger).Log("msg", "another log-upload session is already running")
			events.NewEmitter(newLogSink(logger), props.String(confstore.PropDeviceType, ""),
				props.Bool(confstore.PropEnableMaintenance), logger).LockBusy()
			return exitFailure
		}
		level.Error(logger).Log("msg", "acquiring lock failed", "err", err)
		return exitFailure
	}
	defer lock.Release()

	logPath := props.LogPath()
	paths := uploadctx.Paths{
		LogPath:            logPath,
		DCMLogPath:         props.String(confstore.PropDCMLogPath, logPath),
		PreviousLogPath:    envOr("LOG_UPLOAD_PREVIOUS_LOG_PATH", logPath+"/previous"),
		PreviousBackupPath: envOr("LOG_UPLOAD_PREVIOUS_BACKUP_PATH", logPath+"/backup"),
		DRILogPath:         envOr("LOG_UPLOAD_DRI_LOG_PATH", logPath+"/dri"),
		RRDFile:            args.RRDFile,
		DirectMarker:       "/tmp/.lastdirectfail_upl",
		CodebigMarker:      "/tmp/.lastcodebigfail_upl",
		LockFile:           lockPath,
	}

	uctx, err := uploadctx.Build(paths, uploadctx.Options{
		Properties:             props,
		Params:                 envParamGetter{},
		MACSource:              envOr("LOG_UPLOAD_MAC_SOURCE", "/sys/class/net/eth0/address"),
		OSReleasePath:          envOr("LOG_UPLOAD_OS_RELEASE_MARKER", "/etc/os-release"),
		OCSPMarkerPath:         envOr("LOG_UPLOAD_OCSP_MARKER", ""),
		OCSPStaplingMarkerPath: envOr("LOG_UPLOAD_OCSP_STAPLING_MARKER", ""),
	})
	if err != nil {
		level.Error(logger).Log("msg", "building upload context failed", "err", err)
		return exitFailure
	}

	emitter := events.NewEmitter(newLogSink(logger), uctx.Identity.DeviceType,
		props.Bool(confstore.PropEnableMaintenance), logger)

	engine := &uploadengine.Engine{
		Selector:     buildSelector(logger),
		CodebigProbe: buildCodebigProbe(props),
		Emitter:      emitter,
		Logger:       logger,
	}

	session, exitCode := engine.Execute(context.Background(), uctx, args.Flags, args.RRDFile)
	level.Info(logger).Log("msg", "session finished", "session", session.ID, "strategy", session.Strategy,
		"success", session.Success, "exit_code", exitCode)
	return exitCode
}

func buildSelector(logger log.Logger) certselect.Selector {
	certFile := envOr("LOG_UPLOAD_CLIENT_CERT", "")
	keyFile := envOr("LOG_UPLOAD_CLIENT_KEY", "")
	if certFile == "" || keyFile == "" {
		return nil
	}
	selector, err := certselect.NewStaticSelector(certFile, keyFile)
	if err != nil {
		level.Warn(logger).Log("msg", "loading client certificate failed, continuing without mTLS", "err", err)
		return nil
	}
	return selector
}

func buildCodebigProbe(props *confstore.Properties) uploadengine.CodebigProbe {
	url := props.String(confstore.PropProxyBucket, "")
	if url == "" {
		return uploadengine.NoCodebigProbe{}
	}
	return &uploadengine.HTTPCodebigProbe{URL: url}
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}
