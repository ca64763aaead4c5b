// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Package servicemap builds a client to server call graph from header events.
package servicemap

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mbeema/h2scope/pkg/protocol"
	"go.uber.org/zap"
)

// Edge is one operation called by a client on a server.
type Edge struct {
	Client    string
	Server    string
	Operation string
	Calls     uint64
	Errors    uint64
	LastSeen  time.Time

	// Completed calls and their summed request to final response time.
	Completed    uint64
	TotalLatency time.Duration
}

// AvgLatency returns the mean latency of completed calls.
func (e *Edge) AvgLatency() time.Duration {
	if e.Completed == 0 {
		return 0
	}
	return e.TotalLatency / time.Duration(e.Completed)
}

// ErrorRate returns the fraction of calls that failed.
func (e *Edge) ErrorRate() float64 {
	if e.Calls == 0 {
		return 0
	}
	return float64(e.Errors) / float64(e.Calls)
}

type edgeKey struct {
	client, server, operation string
}

// streamKey identifies an in-flight request awaiting its response.
type streamKey struct {
	conn     string
	streamID uint32
}

type pendingCall struct {
	edge edgeKey
	seen time.Time
}

// Generator builds the call graph. Requests create or bump an edge; error
// responses on the same stream are charged to that edge.
type Generator struct {
	logger *zap.Logger

	mu      sync.RWMutex
	edges   map[edgeKey]*Edge
	pending map[streamKey]pendingCall
}

// NewGenerator creates a new service map generator.
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{
		logger:  logger,
		edges:   make(map[edgeKey]*Edge),
		pending: make(map[streamKey]pendingCall),
	}
}

// Observe records a header event seen between client and server. client is
// usually a bare IP so ephemeral ports collapse into one node.
func (g *Generator) Observe(ev *protocol.HeaderEvent, client, server string) {
	sk := streamKey{ev.Conn, ev.StreamID}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch ev.Direction {
	case protocol.DirRequest:
		if ev.Authority != "" {
			server = ev.Authority
		}
		key := edgeKey{client, server, operation(ev)}
		edge, ok := g.edges[key]
		if !ok {
			edge = &Edge{Client: client, Server: server, Operation: key.operation}
			g.edges[key] = edge
		}
		edge.Calls++
		edge.LastSeen = ev.Timestamp
		g.pending[sk] = pendingCall{edge: key, seen: ev.Timestamp}

	case protocol.DirResponse:
		call, ok := g.pending[sk]
		if !ok {
			return
		}
		if !ev.Error && !ev.EndStream {
			return
		}
		delete(g.pending, sk)
		edge := g.edges[call.edge]
		if edge == nil {
			return
		}
		if ev.Error {
			edge.Errors++
		}
		if d := ev.Timestamp.Sub(call.seen); d >= 0 {
			edge.Completed++
			edge.TotalLatency += d
		}
	}
}

// operation names a request: "Service/Method" for gRPC, "METHOD route" for
// plain HTTP.
func operation(ev *protocol.HeaderEvent) string {
	if ev.GRPCService != "" && ev.GRPCMethod != "" {
		return ev.GRPCService + "/" + ev.GRPCMethod
	}
	path := ev.Route
	if path == "" {
		path = ev.Path
	}
	return ev.Method + " " + path
}

// GetEdges returns a copy of every edge, sorted by client, server and
// operation.
func (g *Generator) GetEdges() []*Edge {
	g.mu.RLock()
	edges := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		cp := *e
		edges = append(edges, &cp)
	}
	g.mu.RUnlock()

	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Client != b.Client {
			return a.Client < b.Client
		}
		if a.Server != b.Server {
			return a.Server < b.Server
		}
		return a.Operation < b.Operation
	})
	return edges
}

// GetServices returns all unique node names, sorted.
func (g *Generator) GetServices() []string {
	g.mu.RLock()
	services := make(map[string]bool)
	for _, e := range g.edges {
		services[e.Client] = true
		services[e.Server] = true
	}
	g.mu.RUnlock()

	result := make([]string, 0, len(services))
	for s := range services {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// ExportDOT generates a Graphviz DOT representation of the call graph.
func (g *Generator) ExportDOT() string {
	var sb strings.Builder
	sb.WriteString("digraph ServiceMap {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box, style=rounded];\n\n")

	for _, s := range g.GetServices() {
		sb.WriteString(fmt.Sprintf("  \"%s\";\n", quote(s)))
	}
	sb.WriteString("\n")

	for _, e := range g.GetEdges() {
		sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\\n%d calls, %d errors\"];\n",
			quote(e.Client), quote(e.Server), quote(e.Operation), e.Calls, e.Errors))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func quote(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

// CleanStale removes edges and unanswered requests not seen since
// now-maxAge. now is a parameter so offline captures can age by capture time.
func (g *Generator) CleanStale(now time.Time, maxAge time.Duration) int {
	cutoff := now.Add(-maxAge)
	removed := 0

	g.mu.Lock()
	for key, e := range g.edges {
		if e.LastSeen.Before(cutoff) {
			delete(g.edges, key)
			removed++
		}
	}
	for key, p := range g.pending {
		if p.seen.Before(cutoff) {
			delete(g.pending, key)
		}
	}
	g.mu.Unlock()

	if removed > 0 {
		g.logger.Debug("removed stale service map edges", zap.Int("removed", removed))
	}
	return removed
}

// EdgeCount returns the number of edges.
func (g *Generator) EdgeCount() int {
	g.mu.RLock()
	n := len(g.edges)
	g.mu.RUnlock()
	return n
}

// PendingCount returns the number of requests still awaiting a response.
func (g *Generator) PendingCount() int {
	g.mu.RLock()
	n := len(g.pending)
	g.mu.RUnlock()
	return n
}
