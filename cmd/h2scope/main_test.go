package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestDecodeBlock(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"82", ":method: GET\n"},
		{"0x8286", ":method: GET\n:scheme: http\n"},
		{"82 86\n84", ":method: GET\n:scheme: http\n:path: /\n"},
		{"", ""},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := decodeBlock(&buf, tt.in); err != nil {
			t.Errorf("decodeBlock(%q) error: %v", tt.in, err)
			continue
		}
		if buf.String() != tt.want {
			t.Errorf("decodeBlock(%q) = %q, want %q", tt.in, buf.String(), tt.want)
		}
	}
}

func TestDecodeBlockErrors(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"zz", "invalid hex"},
		{"ff", "not_enough_octets"},
	}
	for _, tt := range tests {
		err := decodeBlock(&bytes.Buffer{}, tt.in)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("decodeBlock(%q) error = %v, want %q", tt.in, err, tt.want)
		}
	}
}
