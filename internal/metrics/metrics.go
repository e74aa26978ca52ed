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

// Package metrics holds the prometheus collectors shared across both
// binaries, registered on a private registry rather than the global
// default — the same pattern the teacher's config-reloader and exporter
// use.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups every counter/histogram this module exports.
type Metrics struct {
	Registry *prometheus.Registry

	CronFires       *prometheus.CounterVec
	UploadAttempts  *prometheus.CounterVec
	UploadOutcomes  *prometheus.CounterVec
	BlockMarkerSets *prometheus.CounterVec
	ArchiveBytes    prometheus.Histogram
}

// New constructs and registers the full metric set on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		CronFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dcm_agent",
			Name:      "cron_fires_total",
			Help:      "Number of times a scheduled job's cron pattern fired.",
		}, []string{"job"}),
		UploadAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dcm_agent",
			Name:      "upload_attempts_total",
			Help:      "Number of upload attempts made per path.",
		}, []string{"path"}),
		UploadOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dcm_agent",
			Name:      "upload_outcomes_total",
			Help:      "Number of completed upload sessions per outcome.",
		}, []string{"outcome"}),
		BlockMarkerSets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dcm_agent",
			Name:      "block_marker_sets_total",
			Help:      "Number of times a block marker was created or refreshed.",
		}, []string{"marker"}),
		ArchiveBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dcm_agent",
			Name:      "archive_bytes",
			Help:      "Size in bytes of produced upload archives.",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 10),
		}),
	}
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.CronFires,
		m.UploadAttempts,
		m.UploadOutcomes,
		m.BlockMarkerSets,
		m.ArchiveBytes,
	)
	return m
}
