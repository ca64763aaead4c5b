// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HTTP/2 constants
var http2Preface = []byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n")

const (
	http2FrameHeaderLen = 9

	http2FrameData         = 0x0
	http2FrameHeaders      = 0x1
	http2FramePriority     = 0x2
	http2FrameRSTStream    = 0x3
	http2FrameSettings     = 0x4
	http2FramePushPromise  = 0x5
	http2FramePing         = 0x6
	http2FrameGoAway       = 0x7
	http2FrameWindowUpdate = 0x8
	http2FrameContinuation = 0x9

	// HEADERS frame flags
	http2FlagHeadersEndStream  = 0x1
	http2FlagHeadersEndHeaders = 0x4
	http2FlagHeadersPadded     = 0x8
	http2FlagHeadersPriority   = 0x20
)

var (
	// ErrBadFrame means the stream does not look like HTTP/2 at the current
	// offset: unknown frame type or a stray CONTINUATION.
	ErrBadFrame = errors.New("http2: malformed frame")
	// ErrBadPadding means the pad length exceeds the frame payload.
	ErrBadPadding = errors.New("http2: invalid padding")
)

// FrameHeader is the fixed 9-octet HTTP/2 frame header.
type FrameHeader struct {
	Length   uint32
	Type     uint8
	Flags    uint8
	StreamID uint32
}

func (h FrameHeader) String() string {
	return fmt.Sprintf("type=%d flags=%#x stream=%d len=%d", h.Type, h.Flags, h.StreamID, h.Length)
}

// ParseFrameHeader reads a frame header from the start of b.
func ParseFrameHeader(b []byte) (FrameHeader, bool) {
	if len(b) < http2FrameHeaderLen {
		return FrameHeader{}, false
	}
	return FrameHeader{
		Length:   uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]),
		Type:     b[3],
		Flags:    b[4],
		StreamID: (uint32(b[5])<<24 | uint32(b[6])<<16 | uint32(b[7])<<8 | uint32(b[8])) & 0x7fffffff,
	}, true
}

// HeaderFragment returns the header block fragment carried by a HEADERS,
// PUSH_PROMISE or CONTINUATION payload, with padding and priority removed.
// For PUSH_PROMISE it also returns the promised stream ID; otherwise promised
// is 0.
func HeaderFragment(fh FrameHeader, payload []byte) (frag []byte, promised uint32, err error) {
	if fh.Type == http2FrameContinuation {
		return payload, 0, nil
	}

	if fh.Flags&http2FlagHeadersPadded != 0 {
		if len(payload) == 0 {
			return nil, 0, ErrBadPadding
		}
		padLen := int(payload[0])
		payload = payload[1:]
		if padLen > len(payload) {
			return nil, 0, ErrBadPadding
		}
		payload = payload[:len(payload)-padLen]
	}

	switch fh.Type {
	case http2FrameHeaders:
		if fh.Flags&http2FlagHeadersPriority != 0 {
			// 4-byte stream dependency + 1-byte weight
			if len(payload) < 5 {
				return nil, 0, ErrBadFrame
			}
			payload = payload[5:]
		}
	case http2FramePushPromise:
		if len(payload) < 4 {
			return nil, 0, ErrBadFrame
		}
		promised = binary.BigEndian.Uint32(payload[:4]) & 0x7fffffff
		payload = payload[4:]
	default:
		return nil, 0, ErrBadFrame
	}

	return payload, promised, nil
}
