// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Package export ships decoded header events to stdout and OTLP backends.
package export

import (
	"context"
	"strconv"

	"github.com/mbeema/h2scope/pkg/protocol"
)

// Exporter is the interface for header event exporters.
type Exporter interface {
	ExportEvents(ctx context.Context, events []*protocol.HeaderEvent) error
	Shutdown(ctx context.Context) error
}

// Attribute keys follow the OpenTelemetry HTTP and RPC semantic conventions
// where one exists.
const (
	attrMethod        = "http.request.method"
	attrPath          = "url.path"
	attrRoute         = "http.route"
	attrQuery         = "url.query"
	attrScheme        = "url.scheme"
	attrAuthority     = "server.address"
	attrStatusCode    = "http.response.status_code"
	attrContentType   = "http.content_type"
	attrContentLength = "http.content_length"
	attrUserAgent     = "user_agent.original"
	attrRPCSystem     = "rpc.system"
	attrRPCService    = "rpc.service"
	attrRPCMethod     = "rpc.method"
	attrGRPCStatus    = "rpc.grpc.status_code"
	attrGRPCMessage   = "rpc.grpc.message"
	attrStreamID      = "http2.stream_id"
	attrDirection     = "http2.direction"
	attrEndStream     = "http2.end_stream"
	attrConn          = "network.connection"
	attrProtocol      = "network.protocol.name"
	attrHeaderCount   = "http2.header_count"
	attrError         = "error.type"
)

// attribute is an ordered key/value pair. Values are string, int64 or bool.
type attribute struct {
	key   string
	value interface{}
}

// eventAttributes flattens an event into attributes, skipping empty fields.
func eventAttributes(ev *protocol.HeaderEvent) []attribute {
	attrs := make([]attribute, 0, 16)
	str := func(k, v string) {
		if v != "" {
			attrs = append(attrs, attribute{k, v})
		}
	}
	num := func(k string, v int64) {
		if v != 0 {
			attrs = append(attrs, attribute{k, v})
		}
	}

	attrs = append(attrs,
		attribute{attrStreamID, int64(ev.StreamID)},
		attribute{attrDirection, ev.Direction.String()},
		attribute{attrEndStream, ev.EndStream},
		attribute{attrHeaderCount, int64(len(ev.Headers))},
	)
	str(attrConn, ev.Conn)
	str(attrProtocol, ev.Protocol)
	str(attrMethod, ev.Method)
	str(attrPath, ev.Path)
	str(attrRoute, ev.Route)
	str(attrQuery, ev.Query)
	str(attrScheme, ev.Scheme)
	str(attrAuthority, ev.Authority)
	num(attrStatusCode, int64(ev.StatusCode))
	str(attrContentType, ev.ContentType)
	num(attrContentLength, ev.ContentLength)
	str(attrUserAgent, ev.UserAgent)

	if ev.Protocol == protocol.ProtoGRPC {
		attrs = append(attrs, attribute{attrRPCSystem, "grpc"})
		str(attrRPCService, ev.GRPCService)
		str(attrRPCMethod, ev.GRPCMethod)
		if ev.Direction == protocol.DirResponse {
			attrs = append(attrs, attribute{attrGRPCStatus, int64(ev.GRPCStatus)})
		}
		str(attrGRPCMessage, ev.GRPCMessage)
	}

	if ev.Error {
		str(attrError, errorType(ev))
	}
	return attrs
}

func errorType(ev *protocol.HeaderEvent) string {
	if ev.GRPCStatus != 0 {
		return "grpc_" + strconv.Itoa(ev.GRPCStatus)
	}
	if ev.StatusCode != 0 {
		return strconv.Itoa(ev.StatusCode)
	}
	return "error"
}

// severity maps an event to an OTLP severity text and number.
func severity(ev *protocol.HeaderEvent) (string, int32) {
	switch {
	case ev.StatusCode >= 500 || (ev.Error && ev.Protocol == protocol.ProtoGRPC):
		return "ERROR", 17
	case ev.Error:
		return "WARN", 13
	default:
		return "INFO", 9
	}
}
