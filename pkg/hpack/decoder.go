// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Package hpack decodes HTTP/2 header blocks observed mid-connection.
//
// The decoder has never seen the connection's earlier frames, so it keeps no
// dynamic table. Static table references and literal fields are resolved;
// dynamic table references are skipped while still consuming exactly the
// octets they occupy, so the fields after them decode correctly.
package hpack

import "fmt"

// Decoder decodes header blocks. It holds no per-connection state and is safe
// for concurrent use.
type Decoder struct {
	resolver Resolver
}

// NewDecoder returns a Decoder that resolves strings and static entries with r.
// A nil r selects NetResolver.
func NewDecoder(r Resolver) *Decoder {
	if r == nil {
		r = NewNetResolver()
	}
	return &Decoder{resolver: r}
}

// Decode decodes a complete header block. Padding and priority fields must
// already be stripped and CONTINUATION fragments concatenated. Any error
// discards the fields decoded so far.
func (d *Decoder) Decode(block []byte) ([]HeaderField, error) {
	var fields []HeaderField
	offset := 0

	for offset < len(block) {
		out, n, err := d.decodeField(block[offset:])
		if err != nil {
			return nil, fmt.Errorf("field at offset %d: %w", offset, err)
		}
		fields = append(fields, out...)
		offset += n
	}

	return fields, nil
}

// decodeField decodes the field at the start of buf and returns any resolved
// pairs along with the number of octets it occupies.
func (d *Decoder) decodeField(buf []byte) ([]HeaderField, int, error) {
	switch Classify(buf[0]) {
	case Indexed:
		return d.decodeIndexed(buf)
	case LiteralIncremental:
		return d.decodeLiteral(buf, incrementalPrefix)
	case SizeUpdate:
		n, err := decodeSizeUpdate(buf)
		return nil, n, err
	case LiteralNeverIndexed, LiteralWithoutIndexing:
		return d.decodeLiteral(buf, literalPrefix)
	}
	return nil, 0, ErrInvalidInput
}

func (d *Decoder) decodeIndexed(buf []byte) ([]HeaderField, int, error) {
	index, n, err := DecodeInt(buf, indexedPrefix)
	if err != nil {
		return nil, 0, err
	}
	if n > len(buf) {
		return nil, 0, ErrInvalidInput
	}

	// Index 0 is reserved and 62+ lives in the dynamic table we never saw.
	if !isStaticIndex(index) {
		return nil, n, nil
	}

	fields, err := d.resolve(buf[:n])
	if err != nil {
		return nil, 0, err
	}
	return fields, n, nil
}

// decodeLiteral handles the three literal representations, which differ only
// in the width of the name index prefix.
func (d *Decoder) decodeLiteral(buf []byte, prefix uint8) ([]HeaderField, int, error) {
	index, indexLen, err := DecodeInt(buf, prefix)
	if err != nil {
		return nil, 0, err
	}
	if indexLen > len(buf) {
		return nil, 0, ErrInvalidInput
	}

	span := indexLen
	if index != 0 {
		valueLen, n, err := DecodeInt(buf[indexLen:], stringPrefix)
		if err != nil {
			return nil, 0, err
		}
		span += n + valueLen
	} else {
		nameLen, n, err := DecodeInt(buf[indexLen:], stringPrefix)
		if err != nil {
			return nil, 0, err
		}
		nameSpan := nameLen + n
		if nameSpan+indexLen >= len(buf) {
			return nil, 0, ErrInvalidInput
		}

		valueLen, n, err := DecodeInt(buf[indexLen+nameSpan:], stringPrefix)
		if err != nil {
			return nil, 0, err
		}
		span += nameSpan + n + valueLen
	}

	if span > len(buf) {
		return nil, 0, ErrInvalidInput
	}

	// The name lives in the dynamic table; the value alone is not reported.
	if index > staticIndexMax {
		return nil, span, nil
	}

	fields, err := d.resolve(buf[:span])
	if err != nil {
		return nil, 0, err
	}
	return fields, span, nil
}

// decodeSizeUpdate consumes a dynamic table size update. There is no table to
// resize, so the requested size is dropped.
func decodeSizeUpdate(buf []byte) (int, error) {
	_, n, err := DecodeInt(buf, sizeUpdatePrefix)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (d *Decoder) resolve(span []byte) ([]HeaderField, error) {
	fields, err := d.resolver.Resolve(span)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHuffmanCode, err)
	}
	return fields, nil
}
