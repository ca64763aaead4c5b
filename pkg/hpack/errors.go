// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package hpack

import (
	"errors"
	"fmt"
)

// Decode errors. Every error aborts the whole header block; none is retryable.
var (
	// ErrHeaderIndexOutOfBounds is reserved for dynamic table lookups.
	ErrHeaderIndexOutOfBounds = errors.New("hpack: header index out of bounds")
	// ErrNotStaticField is reserved for dynamic table lookups.
	ErrNotStaticField        = errors.New("hpack: not a static table field")
	ErrInvalidInteger        = errors.New("hpack: invalid integer")
	ErrInvalidMaxDynamicSize = errors.New("hpack: invalid max dynamic table size")
	ErrInvalidInput          = errors.New("hpack: invalid input")
	ErrNotEnoughOctets       = errors.New("hpack: not enough octets")
	ErrInvalidHuffmanCode    = errors.New("hpack: invalid huffman code")
)

// InvalidMaxDynamicSizeError reports a size update above the negotiated maximum.
// Nothing returns it yet: size updates are parsed but not enforced.
type InvalidMaxDynamicSizeError struct {
	Requested uint32
	Max       uint32
}

func (e *InvalidMaxDynamicSizeError) Error() string {
	return fmt.Sprintf("%v: requested %d, max %d", ErrInvalidMaxDynamicSize, e.Requested, e.Max)
}

// Is lets errors.Is match the sentinel.
func (e *InvalidMaxDynamicSizeError) Is(target error) bool {
	return target == ErrInvalidMaxDynamicSize
}

// ErrorLabel maps a decode error to a stable, low-cardinality label for metrics
// and logs. Unknown errors map to "other".
func ErrorLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotEnoughOctets):
		return "not_enough_octets"
	case errors.Is(err, ErrInvalidInteger):
		return "invalid_integer"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidHuffmanCode):
		return "invalid_huffman_code"
	case errors.Is(err, ErrInvalidMaxDynamicSize):
		return "invalid_max_dynamic_size"
	case errors.Is(err, ErrHeaderIndexOutOfBounds):
		return "header_index_out_of_bounds"
	case errors.Is(err, ErrNotStaticField):
		return "not_static_field"
	default:
		return "other"
	}
}

// ErrorLabels lists every label ErrorLabel can return for a non-nil error.
var ErrorLabels = []string{
	"not_enough_octets",
	"invalid_integer",
	"invalid_input",
	"invalid_huffman_code",
	"invalid_max_dynamic_size",
	"header_index_out_of_bounds",
	"not_static_field",
	"other",
}
