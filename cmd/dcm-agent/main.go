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

// Command dcm-agent is the long-running configuration daemon: it waits for
// a configuration document to arrive over the message bus (or, absent a
// live peer, over a filesystem watch on the same path), derives the flat
// property files and maintenance window, and arms the upload/check cron
// jobs the document describes.
package main

import (
	"context"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rdkcentral/dcm-agent-sub001/internal/bus"
	"github.com/rdkcentral/dcm-agent-sub001/internal/confstore"
	"github.com/rdkcentral/dcm-agent-sub001/internal/lockfile"
	"github.com/rdkcentral/dcm-agent-sub001/internal/metrics"
	"github.com/rdkcentral/dcm-agent-sub001/internal/scheduler"
)

const (
	jobUpload = "upload"
	jobCheck  = "check"
)

func main() {
	a := kingpin.New("dcm-agent", "RDK configuration and log-upload scheduling daemon")
	a.HelpFlag.Short('h')

	configFile := a.Flag("config-file", "initial configuration document to load at startup").String()
	includeProps := a.Flag("include-properties", "path to the include properties file").Default("/etc/include.properties").String()
	deviceProps := a.Flag("device-properties", "path to the device properties file").Default("/etc/device.properties").String()
	tempFile := a.Flag("temp-file", "path for the temporary flat configuration file").Default("/tmp/DCMSettings.conf").String()
	persistentFile := a.Flag("persistent-file", "path for the persistent flat configuration file").Default("/opt/.DCMSettings.conf").String()
	maintenanceFile := a.Flag("maintenance-file", "path for the maintenance window INI file").Default("/opt/rdk_maintenance.conf").String()
	pidFile := a.Flag("pid-file", "path for this daemon's PID file").Default("/tmp/dcm-agent.pid").String()
	listenAddress := a.Flag("listen-address", "address on which to expose Prometheus metrics").Default(":9092").String()
	watchInterval := a.Flag("watch-interval", "polling interval for the configuration file watch fallback").Default("10s").Duration()
	logUploadBin := a.Flag("log-upload-bin", "path to the log-upload binary this daemon launches on the upload cron").Default("/usr/bin/log-upload").String()

	if _, err := a.Parse(os.Args[1:]); err != nil {
		kingpin.Fatalf("parsing arguments: %v", err)
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	if err := checkSingleton(*pidFile, logger); err != nil {
		level.Error(logger).Log("msg", "refusing to start", "err", err)
		os.Exit(1)
	}
	defer os.Remove(*pidFile)

	m := metrics.New()

	store, err := confstore.Open(confstore.Paths{
		IncludeProperties: *includeProps,
		DeviceProperties:  *deviceProps,
		TemporaryFile:     *tempFile,
		PersistentFile:    *persistentFile,
		MaintenanceFile:   *maintenanceFile,
	}, logger)
	if err != nil {
		level.Error(logger).Log("msg", "opening configuration store failed", "err", err)
		os.Exit(1)
	}

	sched := scheduler.New(logger)
	uploadJob, err := sched.Add(jobUpload, uploadCronHandler(m, logger, *logUploadBin))
	if err != nil {
		level.Error(logger).Log("msg", "registering upload job failed", "err", err)
		os.Exit(1)
	}
	checkJob, err := sched.Add(jobCheck, cronFireHandler(m, logger))
	if err != nil {
		level.Error(logger).Log("msg", "registering check job failed", "err", err)
		os.Exit(1)
	}

	fbus := newFileBackedBus(logger)
	gateway := bus.New(fbus, logger)
	if err := gateway.Start(); err != nil {
		level.Error(logger).Log("msg", "starting bus gateway failed", "err", err)
		os.Exit(1)
	}
	gateway.OnReloadSubAck(true)

	reprocess := func(path string) {
		if path == "" {
			return
		}
		doc, err := store.Process(path)
		if err != nil {
			level.Error(logger).Log("msg", "processing configuration document failed", "path", path, "err", err)
			return
		}
		if err := uploadJob.Arm(doc.UploadCron); err != nil {
			level.Error(logger).Log("msg", "arming upload job failed", "err", err)
		}
		if doc.CheckCron != "" {
			if err := checkJob.Arm(doc.CheckCron); err != nil {
				level.Error(logger).Log("msg", "arming check job failed", "err", err)
			}
		} else {
			checkJob.Disarm()
		}
	}

	if *configFile != "" {
		fbus.deliver(bus.EventSetConfig, map[string]interface{}{"dcmSetConfig": *configFile})
		fbus.deliver(bus.EventProcessConfig, nil)
	}

	var g run.Group
	{
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			return runConfigLoop(ctx, gateway, reprocess)
		}, func(error) {
			cancel()
		})
	}
	{
		if *configFile != "" {
			watcher := bus.NewFileWatcher(*configFile, *watchInterval, func(path string) {
				fbus.deliver(bus.EventSetConfig, map[string]interface{}{"dcmSetConfig": path})
				fbus.deliver(bus.EventProcessConfig, nil)
			}, logger)
			ctx, cancel := context.WithCancel(context.Background())
			g.Add(func() error {
				return watcher.Watch(ctx)
			}, func(error) {
				cancel()
			})
		}
	}
	{
		term := make(chan os.Signal, 1)
		cancel := make(chan struct{})
		signal.Notify(term, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case sig := <-term:
				level.Info(logger).Log("msg", "received signal, shutting down", "signal", sig)
			case <-cancel:
			}
			return nil
		}, func(err error) {
			close(cancel)
			sched.Shutdown()
			gateway.Close()
		})
	}
	{
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry}))
		server := &http.Server{Addr: *listenAddress, Handler: mux}

		g.Add(func() error {
			level.Info(logger).Log("msg", "starting metrics server", "listen", *listenAddress)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		}, func(err error) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			server.Shutdown(ctx)
		})
	}

	if err := g.Run(); err != nil {
		level.Error(logger).Log("msg", "dcm-agent exiting", "err", err)
		os.Exit(1)
	}
}

// runConfigLoop drains the gateway's level-triggered process-requested
// latch, invoking reprocess with the most recently received configuration
// path each time a ProcessConfig event (or the startup delivery) fires.
func runConfigLoop(ctx context.Context, gateway *bus.Gateway, reprocess func(path string)) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if gateway.TakeProcessRequested() {
				if path, ok := gateway.ConfigPath(); ok {
					reprocess(path)
				}
			}
		}
	}
}

// cronFireHandler builds a scheduler.Callback that only records the fire
// in metrics.CronFires, for jobs (the maintenance check) the daemon
// tracks but doesn't itself act on beyond scheduling.
func cronFireHandler(m *metrics.Metrics, logger log.Logger) scheduler.Callback {
	return func(name string) {
		m.CronFires.WithLabelValues(name).Inc()
		level.Info(logger).Log("msg", "cron job fired", "job", name)
	}
}

// uploadCronHandler builds the "upload" job's callback: it launches the
// log-upload binary out of process, the same daemon/engine split the
// lock-file singleton model assumes (one engine invocation, independently
// lockable, per fire). The daemon does not wait for it to finish.
func uploadCronHandler(m *metrics.Metrics, logger log.Logger, bin string) scheduler.Callback {
	return func(name string) {
		m.CronFires.WithLabelValues(name).Inc()
		level.Info(logger).Log("msg", "cron job fired", "job", name)

		cmd := exec.Command(bin, "-", "1", "1", "0", "-", "-", "0", "0")
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			level.Error(logger).Log("msg", "launching log-upload failed", "err", err)
			return
		}
		go func() {
			if err := cmd.Wait(); err != nil {
				level.Warn(logger).Log("msg", "log-upload exited with error", "err", err)
			}
		}()
	}
}

func checkSingleton(pidFile string, logger log.Logger) error {
	if pid, err := lockfile.ReadPID(pidFile); err == nil && lockfile.ProcessAlive(pid) {
		return lockfile.ErrAlreadyRunning(pid)
	}
	return lockfile.WritePID(pidFile)
}
