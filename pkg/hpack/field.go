// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package hpack

// HeaderField is a decoded header name/value pair.
type HeaderField struct {
	Name  []byte
	Value []byte
}

func (f HeaderField) String() string {
	return string(f.Name) + ": " + string(f.Value)
}

// Representation is the wire form of a header field (RFC 7541 section 6).
type Representation uint8

const (
	LiteralWithoutIndexing Representation = iota
	Indexed
	LiteralIncremental
	SizeUpdate
	LiteralNeverIndexed
)

// Leading-octet pattern bits.
const (
	indexedBit     = 0x80
	incrementalBit = 0x40
	sizeUpdateBit  = 0x20
	neverIndexBit  = 0x10
)

// Name prefix widths in bits.
const (
	indexedPrefix     = 7
	incrementalPrefix = 6
	sizeUpdatePrefix  = 5
	literalPrefix     = 4
	stringPrefix      = 7
)

// Static table bounds (RFC 7541 Appendix A).
const (
	staticIndexMin = 1
	staticIndexMax = 61
)

var representationNames = [...]string{
	LiteralWithoutIndexing: "literal_without_indexing",
	Indexed:                "indexed",
	LiteralIncremental:     "literal_incremental_indexing",
	SizeUpdate:             "size_update",
	LiteralNeverIndexed:    "literal_never_indexed",
}

func (r Representation) String() string {
	if int(r) < len(representationNames) {
		return representationNames[r]
	}
	return "unknown"
}

// Classify selects the representation of the field starting with octet b.
// The bit patterns overlap as raw masks, so the order of the cases matters:
// the first match wins.
func Classify(b byte) Representation {
	switch {
	case b&indexedBit != 0:
		return Indexed
	case b&incrementalBit != 0:
		return LiteralIncremental
	case b&sizeUpdateBit != 0:
		return SizeUpdate
	case b&neverIndexBit != 0:
		return LiteralNeverIndexed
	default:
		return LiteralWithoutIndexing
	}
}

// isStaticIndex reports whether index falls in the static table.
func isStaticIndex(index int) bool {
	return index >= staticIndexMin && index <= staticIndexMax
}
