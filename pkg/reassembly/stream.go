// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package reassembly

import (
	"sync"
	"time"
)

// MaxBufferSize is the maximum bytes buffered per direction.
const MaxBufferSize = 256 * 1024 // 256KB

// Side identifies one direction of a TCP connection.
type Side int

const (
	ClientToServer Side = iota
	ServerToClient
)

func (s Side) String() string {
	if s == ClientToServer {
		return "client"
	}
	return "server"
}

// AppendResult tells the caller what happened to a segment.
type AppendResult int

const (
	Appended  AppendResult = iota
	Duplicate              // entirely before the expected sequence number
	Gap                    // bytes were lost; the buffer restarted at this segment
	Truncated              // buffer full; some or all bytes were discarded
)

func (r AppendResult) String() string {
	switch r {
	case Appended:
		return "appended"
	case Duplicate:
		return "duplicate"
	case Gap:
		return "gap"
	default:
		return "truncated"
	}
}

type direction struct {
	buf     []byte
	next    uint32 // next expected sequence number
	synced  bool
	last    time.Time
	gaps    int
	bytesIn uint64
}

// Stream buffers both directions of a single TCP connection in sequence order.
type Stream struct {
	mu sync.Mutex

	Client string
	Server string

	dirs [2]direction
}

// NewStream creates a new stream for a connection.
func NewStream(client, server string) *Stream {
	s := &Stream{
		Client: client,
		Server: server,
	}
	for i := range s.dirs {
		s.dirs[i].buf = make([]byte, 0, 4096)
	}
	return s
}

// SetNextSeq pins the next expected sequence number, e.g. ISN+1 after a SYN.
func (s *Stream) SetNextSeq(side Side, seq uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := &s.dirs[side]
	d.next = seq
	d.synced = true
}

// Append adds a segment with sequence number seq to one direction.
// Retransmitted bytes are trimmed. A segment past the expected sequence
// number means bytes were lost: the buffered data is discarded and the
// direction restarts at seq, since a frame boundary can no longer be trusted.
func (s *Stream) Append(side Side, seq uint32, data []byte, ts time.Time) AppendResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := &s.dirs[side]
	if len(data) == 0 {
		return Duplicate
	}
	d.last = ts

	result := Appended
	if d.synced {
		// Signed distance handles sequence wraparound.
		diff := int32(seq - d.next)
		switch {
		case diff < 0:
			overlap := int(-diff)
			if overlap >= len(data) {
				return Duplicate
			}
			data = data[overlap:]
		case diff > 0:
			d.buf = d.buf[:0]
			d.gaps++
			result = Gap
		}
	}
	d.synced = true
	d.next = seq + uint32(len(data))
	d.bytesIn += uint64(len(data))

	remaining := MaxBufferSize - len(d.buf)
	if remaining <= 0 {
		return Truncated
	}
	if len(data) > remaining {
		data = data[:remaining]
		result = Truncated
	}

	d.buf = append(d.buf, data...)
	return result
}

// Bytes returns the buffered bytes for one direction. The slice is only
// valid until the next call that modifies the stream.
func (s *Stream) Bytes(side Side) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs[side].buf
}

// Consume removes n bytes from the front of one direction.
func (s *Stream) Consume(side Side, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := &s.dirs[side]
	if n >= len(d.buf) {
		d.buf = d.buf[:0]
		return
	}
	// Compact so the buffer does not grow without bound.
	d.buf = append(d.buf[:0], d.buf[n:]...)
}

// Reset clears one direction's buffer. Sequence tracking is kept.
func (s *Stream) Reset(side Side) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs[side].buf = s.dirs[side].buf[:0]
}

// HasData returns true if either buffer has data.
func (s *Stream) HasData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirs[0].buf) > 0 || len(s.dirs[1].buf) > 0
}

// Gaps returns how many times bytes were lost in one direction.
func (s *Stream) Gaps(side Side) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs[side].gaps
}

// BytesIn returns the payload bytes accepted in one direction.
func (s *Stream) BytesIn(side Side) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs[side].bytesIn
}

// LastActivity returns the most recent segment time in either direction.
func (s *Stream) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirs[1].last.After(s.dirs[0].last) {
		return s.dirs[1].last
	}
	return s.dirs[0].last
}
