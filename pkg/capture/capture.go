// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package capture

import (
	"context"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"go.uber.org/zap"
)

// Packet represents a captured TCP segment.
type Packet struct {
	Timestamp time.Time
	SrcIP     string
	DstIP     string
	SrcPort   uint16
	DstPort   uint16
	Seq       uint32
	SYN       bool
	ACK       bool
	FIN       bool
	RST       bool
	Payload   []byte
	Length    int
}

// Capturer is the interface for packet capture.
type Capturer interface {
	Start(ctx context.Context) error
	Stop() error
	OnPacket(fn func(*Packet))
	// Done is closed once every source is exhausted (end of a pcap file) or
	// the capturer is stopped.
	Done() <-chan struct{}
}

// Config holds capture configuration.
type Config struct {
	Interfaces  []string
	PcapFile    string
	BPFFilter   string
	SnapLen     int32
	Promiscuous bool
	Logger      *zap.Logger
}

// baseCapturer provides common functionality.
type baseCapturer struct {
	cfg       *Config
	logger    *zap.Logger
	mu        sync.RWMutex
	callbacks []func(*Packet)
	stopCh    chan struct{}
	stopOnce  sync.Once
	doneCh    chan struct{}
}

func (c *baseCapturer) OnPacket(fn func(*Packet)) {
	c.mu.Lock()
	c.callbacks = append(c.callbacks, fn)
	c.mu.Unlock()
}

func (c *baseCapturer) Done() <-chan struct{} {
	return c.doneCh
}

func (c *baseCapturer) emit(pkt *Packet) {
	c.mu.RLock()
	cbs := c.callbacks
	c.mu.RUnlock()

	for _, cb := range cbs {
		cb(pkt)
	}
}

// New creates a pcap-backed capturer: offline when cfg.PcapFile is set,
// live on cfg.Interfaces otherwise.
func New(cfg *Config) Capturer {
	return newPcapCapturer(cfg)
}

// DecodePacket extracts the TCP segment from a decoded packet. It returns
// false for anything that is not TCP over IPv4 or IPv6.
func DecodePacket(p gopacket.Packet) (*Packet, bool) {
	tcpLayer := p.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return nil, false
	}
	tcp, ok := tcpLayer.(*layers.TCP)
	if !ok {
		return nil, false
	}

	pkt := &Packet{
		SrcPort: uint16(tcp.SrcPort),
		DstPort: uint16(tcp.DstPort),
		Seq:     tcp.Seq,
		SYN:     tcp.SYN,
		ACK:     tcp.ACK,
		FIN:     tcp.FIN,
		RST:     tcp.RST,
		Payload: tcp.Payload,
	}

	switch ip := p.NetworkLayer().(type) {
	case *layers.IPv4:
		pkt.SrcIP = ip.SrcIP.String()
		pkt.DstIP = ip.DstIP.String()
	case *layers.IPv6:
		pkt.SrcIP = ip.SrcIP.String()
		pkt.DstIP = ip.DstIP.String()
	default:
		return nil, false
	}

	if md := p.Metadata(); md != nil {
		pkt.Timestamp = md.Timestamp
		pkt.Length = md.Length
	}
	if pkt.Timestamp.IsZero() {
		pkt.Timestamp = time.Now()
	}
	if pkt.Length == 0 {
		pkt.Length = len(p.Data())
	}

	return pkt, true
}
