// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package hpack

import (
	nethpack "golang.org/x/net/http2/hpack"
)

// Resolver turns an exact byte span holding one or more complete header field
// representations into name/value pairs. It owns the static table and the
// Huffman code tables. Implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(span []byte) ([]HeaderField, error)
}

// resolverTableSize is the dynamic table size given to each throwaway decoder.
// Spans never reference the dynamic table, so the value only bounds what a
// literal with incremental indexing may insert during one call.
const resolverTableSize = 4096

// NetResolver resolves spans with golang.org/x/net/http2/hpack. Each call uses
// a fresh decoder, so nothing inserted into one decoder's dynamic table is
// visible to another call.
type NetResolver struct{}

// NewNetResolver returns the default resolver.
func NewNetResolver() *NetResolver {
	return &NetResolver{}
}

// Resolve decodes span, which must not reference dynamic table entries.
func (NetResolver) Resolve(span []byte) ([]HeaderField, error) {
	dec := nethpack.NewDecoder(resolverTableSize, nil)
	fields, err := dec.DecodeFull(span)
	if err != nil {
		return nil, err
	}

	out := make([]HeaderField, len(fields))
	for i, f := range fields {
		out[i] = HeaderField{Name: []byte(f.Name), Value: []byte(f.Value)}
	}
	return out, nil
}
