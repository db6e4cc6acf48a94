// Copyright 2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datastore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// metrics is the set of Prometheus collectors commit_mut_tx/rollback_mut_tx
// feed, one registry per Datastore so multiple embedded engines in one
// process don't collide on metric names (spec §4.5, supplemented per
// SPEC_FULL.md §10: the original's energy accounting is out of scope, but
// commit/rollback/bytes-appended counters are a real return value the host
// consumes, not just a bare error).
type metrics struct {
	registry *prometheus.Registry

	commits       prometheus.Counter
	rollbacks     prometheus.Counter
	commitLatency prometheus.Histogram
	bytesAppended prometheus.Counter
	rowsInserted  prometheus.Counter
	rowsDeleted   prometheus.Counter
	degraded      prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riftdb_commits_total", Help: "committed mutating transactions",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riftdb_rollbacks_total", Help: "rolled back mutating transactions",
		}),
		commitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "riftdb_commit_latency_seconds", Help: "commit_mut_tx wall-clock latency",
			Buckets: prometheus.DefBuckets,
		}),
		bytesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riftdb_commit_log_bytes_appended_total", Help: "bytes appended to the commit log",
		}),
		rowsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riftdb_rows_inserted_total", Help: "rows inserted across all committed transactions",
		}),
		rowsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "riftdb_rows_deleted_total", Help: "rows deleted across all committed transactions",
		}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "riftdb_degraded", Help: "1 if the datastore has entered degraded state after a failed commit",
		}),
	}
	reg.MustRegister(m.commits, m.rollbacks, m.commitLatency, m.bytesAppended, m.rowsInserted, m.rowsDeleted, m.degraded)
	return m
}

// Snapshot gathers the registry's current counter values into a plain Go
// struct, for cmd/riftdb's stat command to print without linking a full
// Prometheus scrape path into a one-shot CLI process.
func (m *metrics) Snapshot() EngineStats {
	families, err := m.registry.Gather()
	if err != nil {
		return EngineStats{}
	}
	var s EngineStats
	for _, f := range families {
		if len(f.Metric) == 0 {
			continue
		}
		switch f.GetName() {
		case "riftdb_commits_total":
			s.Commits = counterValue(f.Metric[0])
		case "riftdb_rollbacks_total":
			s.Rollbacks = counterValue(f.Metric[0])
		case "riftdb_rows_inserted_total":
			s.RowsInserted = counterValue(f.Metric[0])
		case "riftdb_rows_deleted_total":
			s.RowsDeleted = counterValue(f.Metric[0])
		case "riftdb_commit_log_bytes_appended_total":
			s.BytesAppended = counterValue(f.Metric[0])
		}
	}
	return s
}

func counterValue(m *dto.Metric) uint64 {
	if c := m.GetCounter(); c != nil {
		return uint64(c.GetValue())
	}
	return 0
}

// EngineStats is the lifetime-cumulative counterpart to CommitStats: every
// commit/rollback this Datastore has seen since Open, not just the last one.
type EngineStats struct {
	Commits       uint64
	Rollbacks     uint64
	RowsInserted  uint64
	RowsDeleted   uint64
	BytesAppended uint64
}

// CommitStats describes one commit_mut_tx call (SPEC_FULL.md §10): the
// rows it inserted and deleted, the encoded row bytes of its RowPut
// records (framing, delete records and the TxBoundary record are not
// counted), the tx_offset of its TxBoundary record, and how long the
// commit took. The Prometheus counters accumulate these across commits.
type CommitStats struct {
	TxOffset      uint64
	RowsInserted  int
	RowsDeleted   int
	BytesAppended int64
	Duration      time.Duration
}
