// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package conntrack

import (
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/mbeema/h2scope/pkg/protocol"
	"github.com/mbeema/h2scope/pkg/reassembly"
)

// Endpoint is one side of a TCP connection.
type Endpoint struct {
	IP   string
	Port uint16
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.IP, strconv.Itoa(int(e.Port)))
}

// FlowKey identifies a connection independent of packet direction.
type FlowKey struct {
	A, B Endpoint
}

// NewFlowKey orders the endpoints so both directions map to the same key.
func NewFlowKey(src, dst Endpoint) FlowKey {
	if src.IP < dst.IP || (src.IP == dst.IP && src.Port < dst.Port) {
		return FlowKey{A: src, B: dst}
	}
	return FlowKey{A: dst, B: src}
}

// ConnInfo holds the state of a tracked connection.
type ConnInfo struct {
	Client    Endpoint
	Server    Endpoint
	FirstSeen time.Time
	LastSeen  time.Time
	Packets   uint64

	// Protocol is decided once from the first payload and then remembered.
	// Empty means undecided; protocol.ProtoUnknown means ignored.
	Protocol string

	Stream  *reassembly.Stream
	Walkers [2]*protocol.FrameWalker
}

// SideOf returns the direction a packet from src travels in.
func (c *ConnInfo) SideOf(src Endpoint) reassembly.Side {
	if src == c.Client {
		return reassembly.ClientToServer
	}
	return reassembly.ServerToClient
}

// ID returns "client -> server".
func (c *ConnInfo) ID() string {
	return c.Client.String() + " -> " + c.Server.String()
}

// DefaultMaxConns limits the number of tracked connections to prevent
// unbounded memory growth under connection storms.
const DefaultMaxConns = 100000

// Tracker maps flows to connection state.
type Tracker struct {
	mu       sync.RWMutex
	conns    map[FlowKey]*ConnInfo
	maxConns int
	maxBlock int
	evicted  uint64
}

// NewTracker creates a new connection tracker. maxConns <= 0 selects
// DefaultMaxConns; maxHeaderBlock is handed to each connection's walkers.
func NewTracker(maxConns, maxHeaderBlock int) *Tracker {
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	return &Tracker{
		conns:    make(map[FlowKey]*ConnInfo),
		maxConns: maxConns,
		maxBlock: maxHeaderBlock,
	}
}

// Track returns the connection for a packet from src to dst, creating it if
// needed. A new connection takes src as the client unless serverHint says
// the packet came from the server (e.g. a SYN-ACK or a known server port).
func (t *Tracker) Track(src, dst Endpoint, serverHint bool, ts time.Time) (*ConnInfo, bool) {
	key := NewFlowKey(src, dst)

	t.mu.RLock()
	info := t.conns[key]
	t.mu.RUnlock()
	if info != nil {
		return info, false
	}

	client, server := src, dst
	if serverHint {
		client, server = dst, src
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Another goroutine may have created it between the locks.
	if info := t.conns[key]; info != nil {
		return info, false
	}
	if len(t.conns) >= t.maxConns {
		// Evict the least recently active connection to stay within bounds
		t.evictOldestLocked()
	}

	info = &ConnInfo{
		Client:    client,
		Server:    server,
		FirstSeen: ts,
		LastSeen:  ts,
		Stream:    reassembly.NewStream(client.String(), server.String()),
		Walkers: [2]*protocol.FrameWalker{
			protocol.NewFrameWalker(t.maxBlock),
			protocol.NewFrameWalker(t.maxBlock),
		},
	}
	t.conns[key] = info
	return info, true
}

// Lookup returns the connection between two endpoints, in either order.
func (t *Tracker) Lookup(a, b Endpoint) *ConnInfo {
	t.mu.RLock()
	info := t.conns[NewFlowKey(a, b)]
	t.mu.RUnlock()
	return info
}

// Touch records packet activity on a connection.
func (t *Tracker) Touch(info *ConnInfo, ts time.Time) {
	t.mu.Lock()
	info.LastSeen = ts
	info.Packets++
	t.mu.Unlock()
}

// SetProtocol stores the detected protocol for a connection.
func (t *Tracker) SetProtocol(info *ConnInfo, proto string) {
	t.mu.Lock()
	info.Protocol = proto
	t.mu.Unlock()
}

// GetProtocol returns the cached protocol for a connection, or empty string.
func (t *Tracker) GetProtocol(info *ConnInfo) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return info.Protocol
}

// Remove removes a connection and returns its final info.
func (t *Tracker) Remove(a, b Endpoint) *ConnInfo {
	key := NewFlowKey(a, b)

	t.mu.Lock()
	info := t.conns[key]
	delete(t.conns, key)
	t.mu.Unlock()

	return info
}

// Count returns the number of active connections.
func (t *Tracker) Count() int {
	t.mu.RLock()
	n := len(t.conns)
	t.mu.RUnlock()
	return n
}

// Evicted returns how many connections were dropped to respect the limit.
func (t *Tracker) Evicted() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.evicted
}

// SetMaxConns changes the connection limit. Existing connections above the
// new limit are evicted lazily as new ones arrive.
func (t *Tracker) SetMaxConns(n int) {
	if n <= 0 {
		n = DefaultMaxConns
	}
	t.mu.Lock()
	t.maxConns = n
	t.mu.Unlock()
}

// evictOldestLocked removes the least recently active connection. Must be called under t.mu.
func (t *Tracker) evictOldestLocked() {
	var oldestKey FlowKey
	var oldestTime time.Time
	first := true
	for k, info := range t.conns {
		if first || info.LastSeen.Before(oldestTime) {
			oldestKey = k
			oldestTime = info.LastSeen
			first = false
		}
	}
	if !first {
		delete(t.conns, oldestKey)
		t.evicted++
	}
}

// Expire removes connections idle since before now-maxIdle.
func (t *Tracker) Expire(now time.Time, maxIdle time.Duration) int {
	cutoff := now.Add(-maxIdle)
	removed := 0

	t.mu.Lock()
	for key, info := range t.conns {
		if info.LastSeen.Before(cutoff) {
			delete(t.conns, key)
			removed++
		}
	}
	t.mu.Unlock()

	return removed
}
