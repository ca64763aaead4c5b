// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package protocol

import (
	"testing"
)

func TestDetect(t *testing.T) {
	d := NewDetector([]uint16{50051})

	tests := []struct {
		name   string
		data   []byte
		port   uint16
		expect bool
	}{
		{"preface", http2Preface, 0, true},
		{"short preface", []byte("PRI * HTTP/2"), 0, true},
		{"settings frame", buildFrame(http2FrameSettings, 0, 0, nil), 0, true},
		{"settings on a stream", buildFrame(http2FrameSettings, 0, 1, nil), 0, false},
		{"headers frame", buildFrame(http2FrameHeaders, http2FlagHeadersEndHeaders, 1, []byte{0x82}), 0, true},
		{"headers on stream 0", buildFrame(http2FrameHeaders, 0, 0, []byte{0x82}), 0, false},
		{"HTTP/1.1 request", []byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n"), 8080, false},
		{"port fallback", []byte("some data"), 50051, true},
		{"random data", []byte("random data"), 8080, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.data, tt.port); got != tt.expect {
				t.Errorf("Detect(%q, %d) = %v, want %v", tt.data, tt.port, got, tt.expect)
			}
		})
	}
}

func TestDetectorIsPort(t *testing.T) {
	d := NewDetector([]uint16{50051})
	if !d.IsPort(50051) {
		t.Error("IsPort(50051) = false, want true")
	}
	if d.IsPort(80) {
		t.Error("IsPort(80) = true, want false")
	}
}
