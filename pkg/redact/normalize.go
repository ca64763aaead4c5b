// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package redact

import (
	"regexp"
	"strings"
)

// IDPlaceholder replaces an identifier segment in a normalized path.
const IDPlaceholder = "{id}"

var (
	// Integers, optionally signed
	numericSegment = regexp.MustCompile(`^-?\d+$`)

	// 8-4-4-4-12 UUIDs
	uuidSegment = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	// Hashes and object IDs: long runs of hex with at least one digit
	hexSegment = regexp.MustCompile(`^(?:0x)?[0-9a-fA-F]{16,}$`)
)

// NormalizePath replaces identifier segments of a URL path with {id} so
// paths can be grouped without unbounded cardinality. The query string, if
// any, is dropped.
func NormalizePath(path string) string {
	if path == "" {
		return path
	}
	path, _, _ = strings.Cut(path, "?")

	segments := strings.Split(path, "/")
	changed := false
	for i, seg := range segments {
		if isIdentifier(seg) {
			segments[i] = IDPlaceholder
			changed = true
		}
	}
	if !changed {
		return path
	}
	return strings.Join(segments, "/")
}

func isIdentifier(seg string) bool {
	switch {
	case seg == "":
		return false
	case numericSegment.MatchString(seg), uuidSegment.MatchString(seg):
		return true
	case hexSegment.MatchString(seg):
		return strings.ContainsAny(seg, "0123456789")
	default:
		return false
	}
}
