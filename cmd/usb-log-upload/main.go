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

// Command usb-log-upload archives the live log directory and copies it to
// an external USB drive instead of uploading it: a single manual-trigger
// session with no HTTP path, gated to the device families the legacy tool
// supported. It prints the archive's final path on stdout on success.
package main

import (
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/rdkcentral/dcm-agent-sub001/internal/confstore"
	"github.com/rdkcentral/dcm-agent-sub001/internal/events"
	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadctx"
	"github.com/rdkcentral/dcm-agent-sub001/internal/uploadengine"
)

const (
	exitSuccess     = 0
	exitGeneral     = 1
	exitNoUSB       = 2
	exitWritingErr  = 3
	exitInvalidArgs = 4
)

// supportedDeviceName is the only DEVICE_NAME the legacy tool shipped on.
const supportedDeviceName = "PLATCO"

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	os.Exit(run(logger, os.Args[1:]))
}

func run(logger log.Logger, args []string) int {
	if len(args) != 1 || args[0] == "" {
		level.Error(logger).Log("msg", "usage: usb-log-upload <USB mount point>")
		return exitInvalidArgs
	}
	mountPoint := args[0]

	props, err := confstore.LoadProperties(envOr("USB_LOG_UPLOAD_INCLUDE_PROPERTIES", "/etc/include.properties"),
		envOr("USB_LOG_UPLOAD_DEVICE_PROPERTIES", "/etc/device.properties"))
	if err != nil {
		level.Error(logger).Log("msg", "loading platform properties failed", "err", err)
		return exitGeneral
	}

	if deviceName := props.String(confstore.PropDeviceName, ""); deviceName != supportedDeviceName {
		level.Error(logger).Log("msg", "USB log upload not available on this device", "device_name", deviceName)
		return exitInvalidArgs
	}

	logPath := props.LogPath()
	paths := uploadctx.Paths{
		LogPath:    logPath,
		DCMLogPath: props.String(confstore.PropDCMLogPath, logPath),
	}
	uctx, err := uploadctx.Build(paths, uploadctx.Options{
		Properties: props,
		MACSource:  envOr("USB_LOG_UPLOAD_MAC_SOURCE", "/sys/class/net/eth0/address"),
	})
	if err != nil {
		level.Error(logger).Log("msg", "building upload context failed", "err", err)
		return exitGeneral
	}

	emitter := events.NewEmitter(newLogSink(logger), uctx.Identity.DeviceType,
		props.Bool(confstore.PropEnableMaintenance), logger)
	engine := &uploadengine.Engine{Emitter: emitter, Logger: logger}

	session, exitCode := engine.ExecuteLocalCopy(uctx, uploadengine.USBDestination{MountPoint: mountPoint})
	if session.Success {
		fmt.Println(session.ArchivePath)
	}
	return exitCode
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return def
}
