// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"go.uber.org/zap"
)

const defaultSnapLen = 262144

// pcapCapturer reads packets through libpcap, from a file or live interfaces.
type pcapCapturer struct {
	baseCapturer

	handlesMu sync.Mutex
	handles   []*pcap.Handle
	wg        sync.WaitGroup
}

func newPcapCapturer(cfg *Config) *pcapCapturer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &pcapCapturer{
		baseCapturer: baseCapturer{
			cfg:    cfg,
			logger: logger,
			stopCh: make(chan struct{}),
			doneCh: make(chan struct{}),
		},
	}
}

func (c *pcapCapturer) Start(ctx context.Context) error {
	var handles []*pcap.Handle

	if c.cfg.PcapFile != "" {
		h, err := pcap.OpenOffline(c.cfg.PcapFile)
		if err != nil {
			return fmt.Errorf("open pcap file %s: %w", c.cfg.PcapFile, err)
		}
		handles = append(handles, h)
	} else {
		if len(c.cfg.Interfaces) == 0 {
			return fmt.Errorf("no capture interfaces configured")
		}
		snapLen := c.cfg.SnapLen
		if snapLen <= 0 {
			snapLen = defaultSnapLen
		}
		for _, iface := range c.cfg.Interfaces {
			// A short timeout lets the read loop notice Stop without traffic.
			h, err := pcap.OpenLive(iface, snapLen, c.cfg.Promiscuous, 500*time.Millisecond)
			if err != nil {
				closeAll(handles)
				return fmt.Errorf("open interface %s: %w", iface, err)
			}
			handles = append(handles, h)
		}
	}

	if c.cfg.BPFFilter != "" {
		for _, h := range handles {
			if err := h.SetBPFFilter(c.cfg.BPFFilter); err != nil {
				closeAll(handles)
				return fmt.Errorf("set bpf filter %q: %w", c.cfg.BPFFilter, err)
			}
		}
	}

	c.handlesMu.Lock()
	c.handles = handles
	c.handlesMu.Unlock()

	for _, h := range handles {
		c.wg.Add(1)
		go c.readLoop(ctx, h)
	}
	go func() {
		c.wg.Wait()
		close(c.doneCh)
	}()

	c.logger.Info("packet capture started",
		zap.String("pcap_file", c.cfg.PcapFile),
		zap.Strings("interfaces", c.cfg.Interfaces),
		zap.String("filter", c.cfg.BPFFilter),
	)
	return nil
}

func (c *pcapCapturer) readLoop(ctx context.Context, h *pcap.Handle) {
	defer c.wg.Done()

	src := gopacket.NewPacketSource(h, h.LinkType())
	src.NoCopy = true
	src.Lazy = true

	var decoded, skipped uint64
	defer func() {
		c.logger.Debug("capture source finished",
			zap.Uint64("tcp_packets", decoded),
			zap.Uint64("skipped", skipped),
		)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case p, ok := <-src.Packets():
			if !ok {
				return
			}
			pkt, ok := DecodePacket(p)
			if !ok {
				skipped++
				continue
			}
			decoded++
			c.emit(pkt)
		}
	}
}

func (c *pcapCapturer) Stop() error {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()

	c.handlesMu.Lock()
	closeAll(c.handles)
	c.handles = nil
	c.handlesMu.Unlock()
	return nil
}

func closeAll(handles []*pcap.Handle) {
	for _, h := range handles {
		h.Close()
	}
}
