// Copyright 2024-2026 Madhukar Beema, Distinguished Engineer. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

package export

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mbeema/h2scope/pkg/config"
	"github.com/mbeema/h2scope/pkg/protocol"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
)

const logsPath = "/v1/logs"

// HTTPOTLPExporter sends header events as OTLP logs over HTTP/protobuf.
type HTTPOTLPExporter struct {
	logger      *zap.Logger
	resource    *resourcepb.Resource
	endpoint    string
	compression string
	headers     map[string]string
	client      *http.Client
}

// NewHTTPOTLPExporter creates a new OTLP HTTP exporter.
func NewHTTPOTLPExporter(cfg *config.OTLPConfig, serviceName, serviceVersion, deploymentEnv string, logger *zap.Logger) (*HTTPOTLPExporter, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTLP HTTP endpoint is empty")
	}

	scheme := "https"
	if cfg.Insecure {
		scheme = "http"
	}

	compression := cfg.Compression
	if compression == "" {
		compression = "gzip"
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPOTLPExporter{
		logger:      logger,
		resource:    buildResource(serviceName, serviceVersion, deploymentEnv),
		endpoint:    fmt.Sprintf("%s://%s", scheme, cfg.Endpoint),
		compression: compression,
		headers:     cfg.Headers,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// ExportEvents posts one ExportLogsServiceRequest per batch.
func (e *HTTPOTLPExporter) ExportEvents(ctx context.Context, events []*protocol.HeaderEvent) error {
	if len(events) == 0 {
		return nil
	}
	return e.post(ctx, logsPath, buildLogsRequest(e.resource, events))
}

// post sends a protobuf-encoded request to the OTLP HTTP endpoint.
func (e *HTTPOTLPExporter) post(ctx context.Context, path string, msg proto.Message) error {
	data, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal protobuf: %w", err)
	}

	var body io.Reader = bytes.NewReader(data)
	if e.compression == "gzip" {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return fmt.Errorf("gzip compress: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("gzip close: %w", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	if e.compression == "gzip" {
		req.Header.Set("Content-Encoding", "gzip")
	}
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post %s: %w", path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	e.logger.Debug("OTLP HTTP rejected batch",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return fmt.Errorf("OTLP HTTP %s returned %d", path, resp.StatusCode)
}

// Shutdown closes idle HTTP connections.
func (e *HTTPOTLPExporter) Shutdown(ctx context.Context) error {
	e.client.CloseIdleConnections()
	return nil
}
