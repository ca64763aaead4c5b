// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package export

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/mbeema/h2scope/pkg/config"
	"github.com/mbeema/h2scope/pkg/hpack"
	"github.com/mbeema/h2scope/pkg/protocol"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
)

func fields(kv ...string) []hpack.HeaderField {
	out := make([]hpack.HeaderField, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, hpack.HeaderField{Name: []byte(kv[i]), Value: []byte(kv[i+1])})
	}
	return out
}

func testEvents() []*protocol.HeaderEvent {
	ts := time.Unix(1700000000, 500)

	req := protocol.BuildEvent(1, fields(
		":method", "POST",
		":scheme", "http",
		":path", "/helloworld.Greeter/SayHello",
		":authority", "greeter:50051",
		"content-type", "application/grpc",
	))
	req.Timestamp = ts
	req.Conn = "10.0.0.1:51000 -> 10.0.0.2:50051"

	trailers := protocol.BuildEvent(1, fields(
		"grpc-status", "14",
		"grpc-message", "unavailable",
	))
	trailers.Timestamp = ts
	trailers.EndStream = true

	resp := protocol.BuildEvent(3, fields(":status", "503"))
	resp.Timestamp = ts

	return []*protocol.HeaderEvent{req, trailers, resp}
}

func attrMap(kvs []*commonpb.KeyValue) map[string]*commonpb.AnyValue {
	m := make(map[string]*commonpb.AnyValue, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestConvertEventRequest(t *testing.T) {
	ev := testEvents()[0]
	rec := convertEvent(ev)

	if rec.TimeUnixNano != uint64(ev.Timestamp.UnixNano()) {
		t.Errorf("TimeUnixNano = %d, want %d", rec.TimeUnixNano, ev.Timestamp.UnixNano())
	}
	if got := rec.Body.GetStringValue(); got != "helloworld.Greeter/SayHello" {
		t.Errorf("Body = %q, want %q", got, "helloworld.Greeter/SayHello")
	}
	if rec.SeverityText != "INFO" {
		t.Errorf("SeverityText = %q, want INFO", rec.SeverityText)
	}

	attrs := attrMap(rec.Attributes)
	wantStr := map[string]string{
		attrMethod:     "POST",
		attrPath:       "/helloworld.Greeter/SayHello",
		attrAuthority:  "greeter:50051",
		attrRPCSystem:  "grpc",
		attrRPCService: "helloworld.Greeter",
		attrRPCMethod:  "SayHello",
		attrDirection:  "request",
		attrConn:       "10.0.0.1:51000 -> 10.0.0.2:50051",
	}
	for k, want := range wantStr {
		v, ok := attrs[k]
		if !ok {
			t.Errorf("attribute %s missing", k)
			continue
		}
		if got := v.GetStringValue(); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if got := attrs[attrStreamID].GetIntValue(); got != 1 {
		t.Errorf("%s = %d, want 1", attrStreamID, got)
	}
	if _, ok := attrs[attrStatusCode]; ok {
		t.Errorf("%s set on a request", attrStatusCode)
	}
	if _, ok := attrs[attrGRPCStatus]; ok {
		t.Errorf("%s set on a request", attrGRPCStatus)
	}
}

func TestConvertEventErrors(t *testing.T) {
	evs := testEvents()

	trailers := convertEvent(evs[1])
	if trailers.SeverityText != "ERROR" {
		t.Errorf("trailers SeverityText = %q, want ERROR", trailers.SeverityText)
	}
	attrs := attrMap(trailers.Attributes)
	if got := attrs[attrGRPCStatus].GetIntValue(); got != 14 {
		t.Errorf("%s = %d, want 14", attrGRPCStatus, got)
	}
	if got := attrs[attrError].GetStringValue(); got != "grpc_14" {
		t.Errorf("%s = %q, want grpc_14", attrError, got)
	}
	if !attrs[attrEndStream].GetBoolValue() {
		t.Errorf("%s = false, want true", attrEndStream)
	}

	resp := convertEvent(evs[2])
	if resp.SeverityNumber != logspb.SeverityNumber_SEVERITY_NUMBER_ERROR {
		t.Errorf("503 SeverityNumber = %v, want ERROR", resp.SeverityNumber)
	}
	if got := attrMap(resp.Attributes)[attrStatusCode].GetIntValue(); got != 503 {
		t.Errorf("%s = %d, want 503", attrStatusCode, got)
	}
}

func TestSeverityClientError(t *testing.T) {
	ev := protocol.BuildEvent(5, fields(":status", "404"))
	text, num := severity(ev)
	if text != "WARN" || num != int32(logspb.SeverityNumber_SEVERITY_NUMBER_WARN) {
		t.Errorf("severity = %s/%d, want WARN/13", text, num)
	}
}

func TestToAnyValueSanitizes(t *testing.T) {
	v := toAnyValue(string([]byte{'o', 'k', 0xff}))
	if got := v.GetStringValue(); got != "ok�" {
		t.Errorf("toAnyValue = %q, want replacement char", got)
	}
}

func TestBuildResource(t *testing.T) {
	res := buildResource("edge", "1.2.3", "production")
	attrs := attrMap(res.Attributes)

	for k, want := range map[string]string{
		"service.name":           "edge",
		"service.version":        "1.2.3",
		"deployment.environment": "production",
		"telemetry.sdk.name":     scopeName,
	} {
		if got := attrs[k].GetStringValue(); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}

	bare := attrMap(buildResource("edge", "", "").Attributes)
	if _, ok := bare["service.version"]; ok {
		t.Error("service.version set without a version")
	}
}

// logsCollector is an in-process OTLP logs endpoint.
type logsCollector struct {
	collogspb.UnimplementedLogsServiceServer

	mu   sync.Mutex
	reqs []*collogspb.ExportLogsServiceRequest
}

func (c *logsCollector) Export(_ context.Context, req *collogspb.ExportLogsServiceRequest) (*collogspb.ExportLogsServiceResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	return &collogspb.ExportLogsServiceResponse{}, nil
}

func (c *logsCollector) received() []*collogspb.ExportLogsServiceRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*collogspb.ExportLogsServiceRequest(nil), c.reqs...)
}

func startCollector(t *testing.T) (*logsCollector, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpc.NewServer()
	col := &logsCollector{}
	collogspb.RegisterLogsServiceServer(srv, col)
	go srv.Serve(ln)
	t.Cleanup(srv.Stop)
	return col, ln.Addr().String()
}

func TestOTLPExporterGRPC(t *testing.T) {
	col, addr := startCollector(t)

	cfg := &config.OTLPConfig{Endpoint: addr, Insecure: true, Compression: "gzip"}
	exp, err := NewOTLPExporter(cfg, "edge", "", "", zap.NewNop())
	if err != nil {
		t.Fatalf("NewOTLPExporter: %v", err)
	}
	defer exp.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := exp.ExportEvents(ctx, testEvents()); err != nil {
		t.Fatalf("ExportEvents: %v", err)
	}
	if err := exp.ExportEvents(ctx, nil); err != nil {
		t.Fatalf("ExportEvents(nil): %v", err)
	}

	reqs := col.received()
	if len(reqs) != 1 {
		t.Fatalf("collector got %d requests, want 1", len(reqs))
	}
	rl := reqs[0].ResourceLogs
	if len(rl) != 1 || len(rl[0].ScopeLogs) != 1 {
		t.Fatalf("unexpected request shape: %v", reqs[0])
	}
	if got := len(rl[0].ScopeLogs[0].LogRecords); got != 3 {
		t.Errorf("LogRecords = %d, want 3", got)
	}
	if got := rl[0].ScopeLogs[0].Scope.GetName(); got != scopeName {
		t.Errorf("scope name = %q, want %q", got, scopeName)
	}
}
