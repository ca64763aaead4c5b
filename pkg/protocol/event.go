// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package protocol

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mbeema/h2scope/pkg/hpack"
)

// Direction says which side of a stream a header block belongs to.
type Direction int

const (
	DirUnknown Direction = iota
	DirRequest
	DirResponse
)

func (d Direction) String() string {
	switch d {
	case DirRequest:
		return "request"
	case DirResponse:
		return "response"
	default:
		return "unknown"
	}
}

// HTTP status ranges used for error classification.
const (
	statusClientErrorMin = 400
	statusServerErrorMin = 500
	statusMax            = 600
)

// HeaderEvent is one decoded header block with protocol fields extracted.
type HeaderEvent struct {
	Timestamp time.Time
	Conn      string // "client -> server"
	StreamID  uint32
	Direction Direction
	Protocol  string
	EndStream bool

	// HTTP
	Method        string
	Path          string
	Query         string
	Route         string // Path with identifier segments replaced, set by the caller
	Authority     string
	Scheme        string
	StatusCode    int
	ContentType   string
	ContentLength int64
	UserAgent     string

	// gRPC
	GRPCService string
	GRPCMethod  string
	GRPCStatus  int
	GRPCMessage string

	// General
	Error    bool
	ErrorMsg string

	Headers []hpack.HeaderField
}

// Name returns a short span-style name for the event.
func (e *HeaderEvent) Name() string {
	switch {
	case e.GRPCService != "" && e.GRPCMethod != "":
		return e.GRPCService + "/" + e.GRPCMethod
	case e.Method != "" && e.Path != "":
		return e.Method + " " + e.Path
	case e.StatusCode != 0:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	case e.GRPCMessage != "" || e.Error:
		return "trailers"
	default:
		return "headers"
	}
}

// BuildEvent assigns HTTP/2 and gRPC semantics to a decoded header list.
// Header names are matched exactly; HTTP/2 requires them in lowercase.
func BuildEvent(streamID uint32, headers []hpack.HeaderField) *HeaderEvent {
	ev := &HeaderEvent{
		StreamID: streamID,
		Protocol: ProtoHTTP2,
		Headers:  headers,
	}

	for _, h := range headers {
		value := string(h.Value)
		switch string(h.Name) {
		case ":method":
			ev.Method = value
		case ":path":
			ev.Path, ev.Query, _ = strings.Cut(value, "?")
		case ":authority":
			ev.Authority = value
		case ":scheme":
			ev.Scheme = value
		case ":status":
			ev.StatusCode = parseDecimal(value)
		case "host":
			if ev.Authority == "" {
				ev.Authority = value
			}
		case "content-type":
			ev.ContentType = value
		case "content-length":
			ev.ContentLength = int64(parseDecimal(value))
		case "user-agent":
			ev.UserAgent = value
		case "grpc-status":
			ev.GRPCStatus = parseDecimal(value)
			ev.Protocol = ProtoGRPC
		case "grpc-message":
			ev.GRPCMessage = value
		}
	}

	switch {
	case ev.Method != "":
		ev.Direction = DirRequest
	case ev.StatusCode != 0 || ev.Protocol == ProtoGRPC:
		ev.Direction = DirResponse
	}

	if strings.HasPrefix(ev.ContentType, "application/grpc") {
		ev.Protocol = ProtoGRPC
	}

	if ev.Protocol == ProtoGRPC && ev.Path != "" {
		// gRPC path format: /package.ServiceName/MethodName
		parts := strings.SplitN(strings.TrimPrefix(ev.Path, "/"), "/", 2)
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			ev.GRPCService = parts[0]
			ev.GRPCMethod = parts[1]
		}
	}

	classifyError(ev)
	return ev
}

func classifyError(ev *HeaderEvent) {
	switch {
	case ev.GRPCStatus != 0:
		ev.Error = true
		ev.ErrorMsg = fmt.Sprintf("gRPC status %d", ev.GRPCStatus)
		if ev.GRPCMessage != "" {
			ev.ErrorMsg = fmt.Sprintf("gRPC status %d: %s", ev.GRPCStatus, ev.GRPCMessage)
		}
	case ev.StatusCode >= statusServerErrorMin && ev.StatusCode < statusMax:
		ev.Error = true
		ev.ErrorMsg = fmt.Sprintf("HTTP %d server error", ev.StatusCode)
	case ev.StatusCode >= statusClientErrorMin && ev.StatusCode < statusServerErrorMin:
		ev.Error = true
		ev.ErrorMsg = fmt.Sprintf("HTTP %d client error", ev.StatusCode)
	}
}

// HeaderValue returns the first value for name, or "".
func (e *HeaderEvent) HeaderValue(name string) string {
	for _, h := range e.Headers {
		if string(h.Name) == name {
			return string(h.Value)
		}
	}
	return ""
}

// parseDecimal parses leading ASCII digits, stopping at the first non-digit.
// A value that does not fit in an int parses as 0.
func parseDecimal(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		d := int(c - '0')
		if n > (math.MaxInt-d)/10 {
			return 0
		}
		n = n*10 + d
	}
	return n
}
