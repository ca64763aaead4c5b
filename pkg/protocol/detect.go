// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package protocol

import (
	"bytes"
)

// Protocol names.
const (
	ProtoHTTP2   = "http2"
	ProtoGRPC    = "grpc"
	ProtoUnknown = "unknown"
)

// prefaceMagic is enough of the client preface to recognise a connection
// start even when the first segment is short.
var prefaceMagic = []byte("PRI * HTTP")

// maxDetectFrameLen is the default SETTINGS_MAX_FRAME_SIZE. Frames above it
// are legal after negotiation but make a poor detection signal.
const maxDetectFrameLen = 16384

// Detector decides whether a connection carries cleartext HTTP/2.
type Detector struct {
	ports map[uint16]struct{}
}

// NewDetector creates a detector that also accepts any traffic on ports.
func NewDetector(ports []uint16) *Detector {
	d := &Detector{ports: make(map[uint16]struct{}, len(ports))}
	for _, p := range ports {
		d.ports[p] = struct{}{}
	}
	return d
}

// Detect checks the first bytes seen in one direction of a connection.
func (d *Detector) Detect(data []byte, port uint16) bool {
	// HTTP/2 connection preface
	if bytes.HasPrefix(data, prefaceMagic) {
		return true
	}

	// HTTP/2 frame: 3-byte length + 1-byte type + 1-byte flags + 4-byte stream ID
	if fh, ok := ParseFrameHeader(data); ok {
		if fh.Length < maxDetectFrameLen {
			switch {
			case fh.Type == http2FrameHeaders && fh.StreamID != 0:
				return true
			case fh.Type == http2FrameSettings && fh.StreamID == 0:
				return true
			}
		}
	}

	// Port fallback
	_, ok := d.ports[port]
	return ok
}

// IsPort reports whether port is one of the configured HTTP/2 ports.
func (d *Detector) IsPort(port uint16) bool {
	_, ok := d.ports[port]
	return ok
}
