// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package health

import (
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mbeema/h2scope/pkg/hpack"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats tracks self-monitoring counters for the agent.
type Stats struct {
	startTime time.Time

	PacketsCaptured atomic.Int64
	BytesCaptured   atomic.Int64
	ConnsTracked    atomic.Int64
	StreamGaps      atomic.Int64
	Frames          atomic.Int64
	HeaderBlocks    atomic.Int64
	BlocksDropped   atomic.Int64
	HeadersDecoded  atomic.Int64
	EventsQueued    atomic.Int64

	mu           sync.Mutex
	decodeErrors map[string]int64
	exportSource func() (exported, dropped int64)

	proc *process.Process
}

// NewStats creates a new Stats instance with a zeroed counter for every
// decode error kind.
func NewStats() *Stats {
	s := &Stats{
		startTime:    time.Now(),
		decodeErrors: make(map[string]int64, len(hpack.ErrorLabels)),
	}
	for _, label := range hpack.ErrorLabels {
		s.decodeErrors[label] = 0
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}
	return s
}

// Uptime returns agent uptime.
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// RecordDecodeError counts one failed header block under label.
func (s *Stats) RecordDecodeError(label string) {
	s.mu.Lock()
	s.decodeErrors[label]++
	s.mu.Unlock()
}

// DecodeErrors returns a copy of the per-kind decode error counters.
func (s *Stats) DecodeErrors() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.decodeErrors))
	for k, v := range s.decodeErrors {
		out[k] = v
	}
	return out
}

// SetExportSource registers the function that reports exported and dropped
// event totals, normally export.Manager.Stats.
func (s *Stats) SetExportSource(fn func() (exported, dropped int64)) {
	s.mu.Lock()
	s.exportSource = fn
	s.mu.Unlock()
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	UptimeSeconds   float64
	Goroutines      int
	MemoryRSSBytes  uint64
	CPUPercent      float64
	PacketsCaptured int64
	BytesCaptured   int64
	ConnsTracked    int64
	StreamGaps      int64
	Frames          int64
	HeaderBlocks    int64
	BlocksDropped   int64
	HeadersDecoded  int64
	EventsQueued    int64
	EventsExported  int64
	EventsDropped   int64
	DecodeErrors    map[string]int64
}

// Snapshot returns current stats. Process figures come from the OS when
// available and fall back to the Go runtime.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		UptimeSeconds:   s.Uptime().Seconds(),
		Goroutines:      runtime.NumGoroutine(),
		PacketsCaptured: s.PacketsCaptured.Load(),
		BytesCaptured:   s.BytesCaptured.Load(),
		ConnsTracked:    s.ConnsTracked.Load(),
		StreamGaps:      s.StreamGaps.Load(),
		Frames:          s.Frames.Load(),
		HeaderBlocks:    s.HeaderBlocks.Load(),
		BlocksDropped:   s.BlocksDropped.Load(),
		HeadersDecoded:  s.HeadersDecoded.Load(),
		EventsQueued:    s.EventsQueued.Load(),
		DecodeErrors:    s.DecodeErrors(),
	}

	s.mu.Lock()
	src := s.exportSource
	s.mu.Unlock()
	if src != nil {
		snap.EventsExported, snap.EventsDropped = src()
	}

	if s.proc != nil {
		if mem, err := s.proc.MemoryInfo(); err == nil {
			snap.MemoryRSSBytes = mem.RSS
		}
		if pct, err := s.proc.CPUPercent(); err == nil {
			snap.CPUPercent = pct
		}
	}
	if snap.MemoryRSSBytes == 0 {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		snap.MemoryRSSBytes = memStats.Sys
	}

	return snap
}

// PrometheusMetrics returns stats in Prometheus text exposition format.
func (s *Stats) PrometheusMetrics() string {
	return prometheusFormat(s.Snapshot())
}

func prometheusFormat(snap Snapshot) string {
	var b []byte
	b = appendMetric(b, "h2scope_agent_uptime_seconds", "gauge", "Agent uptime in seconds", snap.UptimeSeconds)
	b = appendMetric(b, "h2scope_agent_goroutines", "gauge", "Number of goroutines", float64(snap.Goroutines))
	b = appendMetric(b, "h2scope_agent_memory_rss_bytes", "gauge", "Resident memory in bytes", float64(snap.MemoryRSSBytes))
	b = appendMetric(b, "h2scope_agent_cpu_percent", "gauge", "Agent CPU usage percent", snap.CPUPercent)
	b = appendMetric(b, "h2scope_packets_captured_total", "counter", "TCP packets captured", float64(snap.PacketsCaptured))
	b = appendMetric(b, "h2scope_bytes_captured_total", "counter", "TCP payload bytes captured", float64(snap.BytesCaptured))
	b = appendMetric(b, "h2scope_connections_tracked", "gauge", "Connections in the flow table", float64(snap.ConnsTracked))
	b = appendMetric(b, "h2scope_stream_gaps_total", "counter", "Sequence gaps that reset a stream direction", float64(snap.StreamGaps))
	b = appendMetric(b, "h2scope_frames_total", "counter", "HTTP/2 frames walked", float64(snap.Frames))
	b = appendMetric(b, "h2scope_header_blocks_total", "counter", "Header blocks assembled", float64(snap.HeaderBlocks))
	b = appendMetric(b, "h2scope_header_blocks_dropped_total", "counter", "Header blocks dropped for exceeding the size limit", float64(snap.BlocksDropped))
	b = appendMetric(b, "h2scope_headers_decoded_total", "counter", "Header fields decoded", float64(snap.HeadersDecoded))
	b = appendMetric(b, "h2scope_events_queued_total", "counter", "Header events queued for export", float64(snap.EventsQueued))
	b = appendMetric(b, "h2scope_events_exported_total", "counter", "Header events exported", float64(snap.EventsExported))
	b = appendMetric(b, "h2scope_events_dropped_total", "counter", "Header events dropped", float64(snap.EventsDropped))

	kinds := make([]string, 0, len(snap.DecodeErrors))
	for k := range snap.DecodeErrors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	const name = "h2scope_decode_errors_total"
	b = appendHeader(b, name, "counter", "Header blocks that failed to decode, by error kind")
	for _, k := range kinds {
		b = append(b, name...)
		b = append(b, `{kind="`...)
		b = append(b, k...)
		b = append(b, `"} `...)
		b = appendFloat(b, float64(snap.DecodeErrors[k]))
		b = append(b, '\n')
	}
	return string(b)
}

func appendHeader(b []byte, name, typ, help string) []byte {
	b = append(b, "# HELP "...)
	b = append(b, name...)
	b = append(b, ' ')
	b = append(b, help...)
	b = append(b, '\n')
	b = append(b, "# TYPE "...)
	b = append(b, name...)
	b = append(b, ' ')
	b = append(b, typ...)
	b = append(b, '\n')
	return b
}

func appendMetric(b []byte, name, typ, help string, value float64) []byte {
	b = appendHeader(b, name, typ, help)
	b = append(b, name...)
	b = append(b, ' ')
	b = appendFloat(b, value)
	b = append(b, '\n')
	return b
}

func appendFloat(b []byte, f float64) []byte {
	if f == float64(int64(f)) {
		return strconv.AppendInt(b, int64(f), 10)
	}
	return strconv.AppendFloat(b, f, 'f', -1, 64)
}
