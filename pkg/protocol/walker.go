// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package protocol

import "bytes"

// DefaultMaxHeaderBlock bounds a reassembled header block.
const DefaultMaxHeaderBlock = 64 * 1024

// HeaderBlock is a complete header block for one stream: the HEADERS (or
// PUSH_PROMISE) fragment followed by all CONTINUATION fragments.
// For PUSH_PROMISE, StreamID is the promised stream and Promised is set.
type HeaderBlock struct {
	StreamID  uint32
	Fragment  []byte
	EndStream bool
	Promised  bool
}

// WalkStats counts what a FrameWalker has seen.
type WalkStats struct {
	Frames        int
	HeaderBlocks  int
	DroppedBlocks int
}

// FrameWalker extracts header blocks from one direction of an HTTP/2
// connection. It is not safe for concurrent use.
type FrameWalker struct {
	maxBlock int

	// Only one header block may be open at a time (RFC 7540 section 6.10).
	// frameID is the stream its frames arrive on; blockID is the stream the
	// block describes, which differs for PUSH_PROMISE.
	pending    []byte
	frameID    uint32
	blockID    uint32
	pendingEnd bool
	promised   bool
	open       bool
	oversized  bool

	stats WalkStats
}

// NewFrameWalker creates a walker. maxHeaderBlock <= 0 selects DefaultMaxHeaderBlock.
func NewFrameWalker(maxHeaderBlock int) *FrameWalker {
	if maxHeaderBlock <= 0 {
		maxHeaderBlock = DefaultMaxHeaderBlock
	}
	return &FrameWalker{maxBlock: maxHeaderBlock}
}

// Stats returns the walker's counters.
func (w *FrameWalker) Stats() WalkStats {
	return w.stats
}

// Reset drops any partially assembled header block.
func (w *FrameWalker) Reset() {
	w.pending = nil
	w.open = false
	w.oversized = false
}

// Walk consumes as many complete frames from data as possible. It returns the
// completed header blocks and the number of bytes consumed; the remainder is a
// partial frame that should be retried once more bytes arrive. Fragments in
// the returned blocks do not alias data.
func (w *FrameWalker) Walk(data []byte) ([]HeaderBlock, int, error) {
	var blocks []HeaderBlock
	consumed := 0

	// The client preface may arrive split across segments.
	if len(data) < len(http2Preface) && bytes.HasPrefix(http2Preface, data) {
		return nil, 0, nil
	}
	if bytes.HasPrefix(data, http2Preface) {
		consumed = len(http2Preface)
	}

	for {
		fh, ok := ParseFrameHeader(data[consumed:])
		if !ok {
			break
		}
		if fh.Type > http2FrameContinuation {
			w.Reset()
			return blocks, consumed, ErrBadFrame
		}
		end := consumed + http2FrameHeaderLen + int(fh.Length)
		if end > len(data) {
			break
		}
		payload := data[consumed+http2FrameHeaderLen : end]
		consumed = end
		w.stats.Frames++

		block, err := w.frame(fh, payload)
		if err != nil {
			w.Reset()
			return blocks, consumed, err
		}
		if block != nil {
			blocks = append(blocks, *block)
		}
	}

	return blocks, consumed, nil
}

func (w *FrameWalker) frame(fh FrameHeader, payload []byte) (*HeaderBlock, error) {
	switch fh.Type {
	case http2FrameHeaders, http2FramePushPromise:
		if w.open {
			// The previous block never finished; its fields are lost.
			w.stats.DroppedBlocks++
			w.Reset()
		}
		frag, promised, err := HeaderFragment(fh, payload)
		if err != nil {
			return nil, err
		}
		w.open = true
		w.frameID = fh.StreamID
		w.blockID = fh.StreamID
		w.promised = fh.Type == http2FramePushPromise
		if w.promised {
			w.blockID = promised
		}
		w.pendingEnd = fh.Type == http2FrameHeaders && fh.Flags&http2FlagHeadersEndStream != 0
		w.appendFragment(frag)

	case http2FrameContinuation:
		if !w.open || fh.StreamID != w.frameID {
			return nil, ErrBadFrame
		}
		w.appendFragment(payload)

	default:
		return nil, nil
	}

	if fh.Flags&http2FlagHeadersEndHeaders == 0 {
		return nil, nil
	}

	defer w.Reset()
	if w.oversized {
		w.stats.DroppedBlocks++
		return nil, nil
	}
	w.stats.HeaderBlocks++
	return &HeaderBlock{
		StreamID:  w.blockID,
		Fragment:  w.pending,
		EndStream: w.pendingEnd,
		Promised:  w.promised,
	}, nil
}

func (w *FrameWalker) appendFragment(frag []byte) {
	if w.oversized {
		return
	}
	if len(w.pending)+len(frag) > w.maxBlock {
		w.oversized = true
		w.pending = nil
		return
	}
	w.pending = append(w.pending, frag...)
}
