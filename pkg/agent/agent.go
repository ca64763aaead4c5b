// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package agent

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mbeema/h2scope/pkg/capture"
	"github.com/mbeema/h2scope/pkg/config"
	"github.com/mbeema/h2scope/pkg/conntrack"
	"github.com/mbeema/h2scope/pkg/export"
	"github.com/mbeema/h2scope/pkg/health"
	"github.com/mbeema/h2scope/pkg/hpack"
	"github.com/mbeema/h2scope/pkg/protocol"
	"github.com/mbeema/h2scope/pkg/reassembly"
	"github.com/mbeema/h2scope/pkg/redact"
	"github.com/mbeema/h2scope/pkg/servicemap"
	"go.uber.org/zap"
)

// Version is reported by the health endpoint. Set by the CLI.
var Version = "dev"

// detectAttempts is how many payload-carrying packets a connection gets to
// look like HTTP/2 before it is ignored for good.
const detectAttempts = 8

// Agent wires capture, connection tracking, stream reassembly, frame walking,
// HPACK decoding and export together.
// Config is stored as an atomic pointer so Reload is safe against the
// packet path.
type Agent struct {
	cfg    atomic.Pointer[config.Config]
	logger *zap.Logger

	capturer     capture.Capturer
	connTracker  *conntrack.Tracker
	detector     atomic.Pointer[protocol.Detector]
	decoder      *hpack.Decoder
	redactor     atomic.Pointer[redact.Redactor]
	serviceMap   *servicemap.Generator
	exporter     *export.Manager
	healthServer *health.Server
	healthStats  *health.Stats

	// Frame walkers are not safe for concurrent use and live sources may
	// deliver packets from several goroutines.
	pipeMu sync.Mutex

	// Newest packet timestamp. Offline captures expire connections against
	// capture time, not wall time.
	lastPacket atomic.Int64
	offline    bool

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an agent from configuration. Nothing runs until Start.
func New(cfg *config.Config, logger *zap.Logger) (*Agent, error) {
	if cfg == nil {
		return nil, errors.New("agent: nil config")
	}

	a := &Agent{
		logger:      logger,
		connTracker: conntrack.NewTracker(cfg.Conntrack.MaxConns, cfg.HTTP2.MaxHeaderBlock),
		decoder:     hpack.NewDecoder(nil),
		healthStats: health.NewStats(),
		offline:     cfg.Capture.PcapFile != "",
	}
	a.cfg.Store(cfg)
	a.detector.Store(protocol.NewDetector(cfg.HTTP2.PortList()))
	a.redactor.Store(redact.New(cfg.Redaction.Enabled, cfg.Redaction.Headers, nil))
	if cfg.ServiceMap.Enabled {
		a.serviceMap = servicemap.NewGenerator(logger)
	}

	a.exporter = export.NewManager(&export.ManagerConfig{
		Exporters:      &cfg.Exporters,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		DeploymentEnv:  cfg.DeploymentEnv,
	}, logger)

	return a, nil
}

// Start begins capture and the background loops.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg := a.cfg.Load()
	a.ctx, a.cancel = context.WithCancel(ctx)

	a.healthStats.SetExportSource(a.exporter.Stats)
	if err := a.exporter.Start(a.ctx); err != nil {
		return err
	}

	if cfg.Health.Enabled {
		a.healthServer = health.NewServer(cfg.Health.Port, Version, a.healthStats, a.logger)
		if a.serviceMap != nil {
			a.healthServer.Handle("/servicemap", http.HandlerFunc(a.handleServiceMap))
		}
		if err := a.healthServer.Start(a.ctx); err != nil {
			a.logger.Warn("failed to start health server", zap.Error(err))
			a.healthServer = nil
		}
	}

	if a.capturer == nil {
		a.capturer = capture.New(&capture.Config{
			Interfaces:  cfg.Capture.Interfaces,
			PcapFile:    cfg.Capture.PcapFile,
			BPFFilter:   cfg.Capture.BPFFilter,
			SnapLen:     int32(cfg.Capture.SnapLen),
			Promiscuous: cfg.Capture.Promiscuous,
			Logger:      a.logger,
		})
	}
	a.capturer.OnPacket(a.handlePacket)
	if err := a.capturer.Start(a.ctx); err != nil {
		a.cancel()
		return err
	}

	a.wg.Add(1)
	go a.expireLoop(a.ctx)

	if a.healthServer != nil {
		a.healthServer.SetReady(true)
	}

	a.logger.Info("agent started",
		zap.String("service", cfg.ServiceName),
		zap.Ints("http2_ports", cfg.HTTP2.Ports),
		zap.Int("max_header_block", cfg.HTTP2.MaxHeaderBlock),
		zap.Bool("offline", a.offline),
	)
	return nil
}

// Done is closed when the packet source is exhausted, e.g. at the end of a
// pcap file. It is nil before Start.
func (a *Agent) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.capturer == nil {
		return nil
	}
	return a.capturer.Done()
}

// Stop halts capture, flushes queued events and shuts down exporters.
func (a *Agent) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.healthServer != nil {
		a.healthServer.SetReady(false)
	}

	if a.capturer != nil {
		a.capturer.Stop()
	}

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.exporter.Stop()

	if a.healthServer != nil {
		a.healthServer.Stop()
	}

	snap := a.healthStats.Snapshot()
	a.logger.Info("agent stopped",
		zap.Int64("packets", snap.PacketsCaptured),
		zap.Int64("header_blocks", snap.HeaderBlocks),
		zap.Int64("headers", snap.HeadersDecoded),
		zap.Int64("events_exported", snap.EventsExported),
		zap.Int64("events_dropped", snap.EventsDropped),
		zap.Any("decode_errors", snap.DecodeErrors),
		zap.Int("active_connections", a.connTracker.Count()),
	)
	return nil
}

// Reload applies a new configuration. HTTP/2 ports, the connection limit
// and idle timeouts take effect immediately; capture sources, exporters and
// the log level need a restart.
func (a *Agent) Reload(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	old := a.cfg.Load()
	a.cfg.Store(cfg)
	a.detector.Store(protocol.NewDetector(cfg.HTTP2.PortList()))
	a.connTracker.SetMaxConns(cfg.Conntrack.MaxConns)
	a.redactor.Store(redact.New(cfg.Redaction.Enabled, cfg.Redaction.Headers, nil))

	if old.LogLevel != cfg.LogLevel {
		a.logger.Warn("log_level change requires restart", zap.String("log_level", cfg.LogLevel))
	}

	a.logger.Info("configuration reloaded",
		zap.Ints("http2_ports", cfg.HTTP2.Ports),
		zap.Int("max_conns", cfg.Conntrack.MaxConns),
		zap.Duration("idle_timeout", cfg.Conntrack.IdleTimeout),
	)
	return nil
}

// Stats returns the agent's self-monitoring counters.
func (a *Agent) Stats() *health.Stats {
	return a.healthStats
}

// ServiceMap returns the call graph, or nil when it is disabled.
func (a *Agent) ServiceMap() *servicemap.Generator {
	return a.serviceMap
}

func (a *Agent) handleServiceMap(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write([]byte(a.serviceMap.ExportDOT()))
}

func (a *Agent) handlePacket(pkt *capture.Packet) {
	a.healthStats.PacketsCaptured.Add(1)
	a.healthStats.BytesCaptured.Add(int64(len(pkt.Payload)))
	if ns := pkt.Timestamp.UnixNano(); ns > a.lastPacket.Load() {
		a.lastPacket.Store(ns)
	}

	src := conntrack.Endpoint{IP: pkt.SrcIP, Port: pkt.SrcPort}
	dst := conntrack.Endpoint{IP: pkt.DstIP, Port: pkt.DstPort}

	a.pipeMu.Lock()
	defer a.pipeMu.Unlock()

	if pkt.RST {
		a.closeConn(src, dst)
		return
	}

	info, created := a.connTracker.Track(src, dst, a.fromServer(pkt), pkt.Timestamp)
	if created {
		a.healthStats.ConnsTracked.Store(int64(a.connTracker.Count()))
	}
	a.connTracker.Touch(info, pkt.Timestamp)
	side := info.SideOf(src)

	if pkt.SYN {
		info.Stream.SetNextSeq(side, pkt.Seq+1)
		return
	}

	if len(pkt.Payload) > 0 {
		a.processPayload(info, side, pkt)
	}

	if pkt.FIN {
		a.closeConn(src, dst)
	}
}

// fromServer guesses whether a packet that opens a connection was sent by
// the server.
func (a *Agent) fromServer(pkt *capture.Packet) bool {
	if pkt.SYN {
		return pkt.ACK
	}
	det := a.detector.Load()
	return det.IsPort(pkt.SrcPort) && !det.IsPort(pkt.DstPort)
}

func (a *Agent) processPayload(info *conntrack.ConnInfo, side reassembly.Side, pkt *capture.Packet) {
	proto := a.connTracker.GetProtocol(info)
	if proto == "" {
		switch {
		case a.detector.Load().Detect(pkt.Payload, info.Server.Port):
			proto = protocol.ProtoHTTP2
			a.connTracker.SetProtocol(info, proto)
			a.logger.Debug("http2 connection detected", zap.String("conn", info.ID()))
		case info.Packets >= detectAttempts:
			a.connTracker.SetProtocol(info, protocol.ProtoUnknown)
			return
		default:
			return
		}
	}
	if proto == protocol.ProtoUnknown {
		return
	}

	walker := info.Walkers[side]
	switch info.Stream.Append(side, pkt.Seq, pkt.Payload, pkt.Timestamp) {
	case reassembly.Duplicate:
		return
	case reassembly.Gap:
		a.healthStats.StreamGaps.Add(1)
		walker.Reset()
	}

	before := walker.Stats()
	blocks, n, err := walker.Walk(info.Stream.Bytes(side))
	after := walker.Stats()
	a.healthStats.Frames.Add(int64(after.Frames - before.Frames))
	a.healthStats.BlocksDropped.Add(int64(after.DroppedBlocks - before.DroppedBlocks))

	switch {
	case err != nil:
		a.logger.Debug("frame walk failed, resyncing",
			zap.String("conn", info.ID()),
			zap.Stringer("side", side),
			zap.Error(err),
		)
		info.Stream.Reset(side)
	case n == 0 && len(info.Stream.Bytes(side)) >= reassembly.MaxBufferSize:
		// A single frame larger than the buffer can never complete.
		walker.Reset()
		info.Stream.Reset(side)
	default:
		info.Stream.Consume(side, n)
	}

	for _, block := range blocks {
		a.decodeBlock(info, side, block, pkt.Timestamp)
	}
}

func (a *Agent) decodeBlock(info *conntrack.ConnInfo, side reassembly.Side, block protocol.HeaderBlock, ts time.Time) {
	a.healthStats.HeaderBlocks.Add(1)

	fields, err := a.decoder.Decode(block.Fragment)
	if err != nil {
		kind := hpack.ErrorLabel(err)
		a.healthStats.RecordDecodeError(kind)
		a.logger.Debug("header block decode failed",
			zap.String("conn", info.ID()),
			zap.Uint32("stream_id", block.StreamID),
			zap.Int("block_len", len(block.Fragment)),
			zap.String("error_kind", kind),
			zap.Error(err),
		)
		return
	}
	a.healthStats.HeadersDecoded.Add(int64(len(fields)))

	ev := protocol.BuildEvent(block.StreamID, a.redactor.Load().RedactFields(fields))
	ev.Timestamp = ts
	ev.Conn = info.ID()
	ev.EndStream = block.EndStream
	if ev.Direction == protocol.DirUnknown {
		ev.Direction = protocol.DirResponse
		if side == reassembly.ClientToServer {
			ev.Direction = protocol.DirRequest
		}
	}
	if ev.Path != "" && ev.Protocol != protocol.ProtoGRPC {
		ev.Route = redact.NormalizePath(ev.Path)
	}

	// A promised request was never sent by the client, so it is not a call.
	if a.serviceMap != nil && !block.Promised {
		a.serviceMap.Observe(ev, info.Client.IP, info.Server.String())
	}

	if a.exporter.Export(ev) {
		a.healthStats.EventsQueued.Add(1)
	}
}

func (a *Agent) closeConn(src, dst conntrack.Endpoint) {
	if info := a.connTracker.Remove(src, dst); info != nil {
		a.logger.Debug("connection closed",
			zap.String("conn", info.ID()),
			zap.Uint64("packets", info.Packets),
			zap.Int("stream_gaps", info.Stream.Gaps(reassembly.ClientToServer)+info.Stream.Gaps(reassembly.ServerToClient)),
		)
	}
	a.healthStats.ConnsTracked.Store(int64(a.connTracker.Count()))
}

func (a *Agent) expireLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.Load().Conntrack.ExpireInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.expire()
		case <-ctx.Done():
			return
		}
	}
}

func (a *Agent) expire() int {
	now := time.Now()
	if a.offline {
		if ns := a.lastPacket.Load(); ns != 0 {
			now = time.Unix(0, ns)
		}
	}

	cfg := a.cfg.Load()
	a.pipeMu.Lock()
	removed := a.connTracker.Expire(now, cfg.Conntrack.IdleTimeout)
	a.pipeMu.Unlock()

	if a.serviceMap != nil {
		a.serviceMap.CleanStale(now, cfg.ServiceMap.MaxAge)
	}

	a.healthStats.ConnsTracked.Store(int64(a.connTracker.Count()))
	if removed > 0 {
		a.logger.Debug("expired idle connections",
			zap.Int("removed", removed),
			zap.Int("active", a.connTracker.Count()),
			zap.Uint64("evicted_total", a.connTracker.Evicted()),
		)
	}
	return removed
}
