package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mbeema/h2scope/pkg/protocol"
	"go.uber.org/zap"
)

// StdoutExporter prints header events to stdout for debugging.
type StdoutExporter struct {
	format string // "text" or "json"
	logger *zap.Logger

	mu  sync.Mutex
	out io.Writer
}

// NewStdoutExporter creates a new stdout exporter.
func NewStdoutExporter(format string, logger *zap.Logger) *StdoutExporter {
	if format == "" {
		format = "text"
	}
	return &StdoutExporter{
		format: format,
		logger: logger,
		out:    os.Stdout,
	}
}

// ExportEvents prints events, one line each.
func (e *StdoutExporter) ExportEvents(ctx context.Context, events []*protocol.HeaderEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, ev := range events {
		if e.format == "json" {
			e.printJSON(ev)
			continue
		}

		status := "OK"
		if ev.Error {
			status = "ERR"
		}
		fmt.Fprintf(e.out,
			"[H2] %s %-8s stream=%-5d %-40s %-3s %s %s\n",
			ev.Timestamp.Format(time.RFC3339Nano), ev.Direction, ev.StreamID,
			ev.Name(), status, ev.Conn,
			formatHeaders(ev),
		)
	}
	return nil
}

// Shutdown is a no-op for stdout.
func (e *StdoutExporter) Shutdown(ctx context.Context) error {
	return nil
}

func (e *StdoutExporter) printJSON(ev *protocol.HeaderEvent) {
	data := make(map[string]interface{}, 24)
	data["_type"] = "http2_headers"
	data["timestamp"] = ev.Timestamp.Format(time.RFC3339Nano)
	data["name"] = ev.Name()
	for _, a := range eventAttributes(ev) {
		data[a.key] = a.value
	}

	headers := make([][2]string, 0, len(ev.Headers))
	for _, h := range ev.Headers {
		headers = append(headers, [2]string{string(h.Name), string(h.Value)})
	}
	data["headers"] = headers

	b, err := json.Marshal(data)
	if err != nil {
		e.logger.Debug("marshal event", zap.Error(err))
		return
	}
	fmt.Fprintf(e.out, "%s\n", b)
}

// formatHeaders renders at most five headers as name=value pairs.
func formatHeaders(ev *protocol.HeaderEvent) string {
	if len(ev.Headers) == 0 {
		return ""
	}
	var parts []string
	for _, h := range ev.Headers {
		if len(parts) >= 5 {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%s=%s", h.Name, h.Value))
	}
	return strings.Join(parts, " ")
}
