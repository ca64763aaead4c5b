// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package protocol

import (
	"testing"

	"github.com/mbeema/h2scope/pkg/hpack"
	nethpack "golang.org/x/net/http2/hpack"
)

func fieldsOf(headers ...string) []hpack.HeaderField {
	var out []hpack.HeaderField
	for i := 0; i+1 < len(headers); i += 2 {
		out = append(out, hpack.HeaderField{Name: []byte(headers[i]), Value: []byte(headers[i+1])})
	}
	return out
}

func TestBuildEventGRPCRequest(t *testing.T) {
	frame := buildFrame(http2FrameHeaders, http2FlagHeadersEndHeaders, 1, encodeHeaders(requestHeaders))
	blocks, _, err := NewFrameWalker(0).Walk(frame)
	if err != nil || len(blocks) != 1 {
		t.Fatalf("Walk = (%d blocks, %v)", len(blocks), err)
	}

	ev := BuildEvent(blocks[0].StreamID, decodeBlock(t, blocks[0]))

	if ev.Protocol != ProtoGRPC {
		t.Errorf("Protocol = %q, want grpc", ev.Protocol)
	}
	if ev.Direction != DirRequest {
		t.Errorf("Direction = %s, want request", ev.Direction)
	}
	if ev.GRPCService != "mypackage.UserService" {
		t.Errorf("GRPCService = %q, want 'mypackage.UserService'", ev.GRPCService)
	}
	if ev.GRPCMethod != "GetUser" {
		t.Errorf("GRPCMethod = %q, want 'GetUser'", ev.GRPCMethod)
	}
	if ev.Name() != "mypackage.UserService/GetUser" {
		t.Errorf("Name = %q, want 'mypackage.UserService/GetUser'", ev.Name())
	}
	if ev.Method != "POST" {
		t.Errorf("Method = %q, want 'POST'", ev.Method)
	}
	if ev.Authority != "localhost:50051" {
		t.Errorf("Authority = %q", ev.Authority)
	}
	if ev.HeaderValue("te") != "trailers" {
		t.Errorf("te = %q, want trailers", ev.HeaderValue("te"))
	}
}

func TestBuildEventGRPCTrailers(t *testing.T) {
	block := encodeHeaders([]nethpack.HeaderField{
		{Name: "grpc-status", Value: "5"},
		{Name: "grpc-message", Value: "User not found"},
	})
	frame := buildFrame(http2FrameHeaders, http2FlagHeadersEndHeaders|http2FlagHeadersEndStream, 1, block)
	blocks, _, err := NewFrameWalker(0).Walk(frame)
	if err != nil || len(blocks) != 1 {
		t.Fatalf("Walk = (%d blocks, %v)", len(blocks), err)
	}

	ev := BuildEvent(1, decodeBlock(t, blocks[0]))
	if ev.GRPCStatus != 5 {
		t.Errorf("GRPCStatus = %d, want 5 (NOT_FOUND)", ev.GRPCStatus)
	}
	if !ev.Error {
		t.Error("expected Error=true for non-zero gRPC status")
	}
	if ev.ErrorMsg != "gRPC status 5: User not found" {
		t.Errorf("ErrorMsg = %q", ev.ErrorMsg)
	}
	if ev.Direction != DirResponse {
		t.Errorf("Direction = %s, want response", ev.Direction)
	}
	if !blocks[0].EndStream {
		t.Error("trailers should end the stream")
	}
}

func TestBuildEventHTTP(t *testing.T) {
	tests := []struct {
		name      string
		headers   []hpack.HeaderField
		direction Direction
		evName    string
		isError   bool
	}{
		{
			name:      "GET with query",
			headers:   fieldsOf(":method", "GET", ":path", "/api/users?page=1", ":authority", "example.com", "user-agent", "curl/8.0"),
			direction: DirRequest,
			evName:    "GET /api/users",
		},
		{
			name:      "200 response",
			headers:   fieldsOf(":status", "200", "content-type", "application/json", "content-length", "46"),
			direction: DirResponse,
			evName:    "HTTP 200",
		},
		{
			name:      "404 response",
			headers:   fieldsOf(":status", "404"),
			direction: DirResponse,
			evName:    "HTTP 404",
			isError:   true,
		},
		{
			name:      "503 response",
			headers:   fieldsOf(":status", "503"),
			direction: DirResponse,
			evName:    "HTTP 503",
			isError:   true,
		},
		{
			name:      "no pseudo headers",
			headers:   fieldsOf("x-custom", "1"),
			direction: DirUnknown,
			evName:    "headers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := BuildEvent(1, tt.headers)
			if ev.Direction != tt.direction {
				t.Errorf("Direction = %s, want %s", ev.Direction, tt.direction)
			}
			if ev.Name() != tt.evName {
				t.Errorf("Name = %q, want %q", ev.Name(), tt.evName)
			}
			if ev.Error != tt.isError {
				t.Errorf("Error = %v, want %v (%s)", ev.Error, tt.isError, ev.ErrorMsg)
			}
			if ev.Protocol != ProtoHTTP2 {
				t.Errorf("Protocol = %q, want http2", ev.Protocol)
			}
		})
	}
}

func TestBuildEventFields(t *testing.T) {
	ev := BuildEvent(7, fieldsOf(
		":method", "GET",
		":scheme", "https",
		":path", "/search?q=h2",
		"host", "fallback.example",
		"content-length", "46",
		"user-agent", "curl/8.0",
	))

	if ev.Path != "/search" || ev.Query != "q=h2" {
		t.Errorf("path/query = %q/%q", ev.Path, ev.Query)
	}
	if ev.Scheme != "https" {
		t.Errorf("Scheme = %q", ev.Scheme)
	}
	if ev.Authority != "fallback.example" {
		t.Errorf("Authority = %q, want host fallback", ev.Authority)
	}
	if ev.ContentLength != 46 {
		t.Errorf("ContentLength = %d, want 46", ev.ContentLength)
	}
	if ev.UserAgent != "curl/8.0" {
		t.Errorf("UserAgent = %q", ev.UserAgent)
	}
	if ev.StreamID != 7 {
		t.Errorf("StreamID = %d", ev.StreamID)
	}
}

func TestBuildEventContentLengthOverflow(t *testing.T) {
	ev := BuildEvent(1, fieldsOf(
		":status", "200",
		"content-length", "99999999999999999999",
	))
	if ev.ContentLength != 0 {
		t.Errorf("ContentLength = %d, want 0 for an overflowing value", ev.ContentLength)
	}
	if ev.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", ev.StatusCode)
	}
}

func TestParseDecimal(t *testing.T) {
	tests := map[string]int{
		"200":                  200,
		"0":                    0,
		"":                     0,
		"14 extra":             14,
		"abc":                  0,
		"99999999999999999999": 0,
		"2147483647":           2147483647,
	}
	for in, want := range tests {
		if got := parseDecimal(in); got != want {
			t.Errorf("parseDecimal(%q) = %d, want %d", in, got, want)
		}
	}
}
