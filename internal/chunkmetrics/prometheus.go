// Package chunkmetrics provides a Prometheus-backed chunkgraph.Metrics
// implementation, kept out of package chunkgraph so the core traversal
// stays free of the prometheus dependency for callers that don't want it.
package chunkmetrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus implements chunkgraph.Metrics with four counters, registered
// under the chunkgraph_ namespace.
type Prometheus struct {
	nodesVisited prometheus.Counter
	chunkItems   prometheus.Counter
	aborts       prometheus.Counter
	splitRetries prometheus.Counter
}

// NewPrometheus constructs and registers the counters against reg. Pass
// prometheus.DefaultRegisterer for the global registry.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		nodesVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkgraph",
			Name:      "nodes_visited_total",
			Help:      "Graph nodes accepted by the visitor, across all traversals.",
		}),
		chunkItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkgraph",
			Name:      "chunk_items_total",
			Help:      "Chunk items counted toward the size cap, across all traversals.",
		}),
		aborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkgraph",
			Name:      "aborts_total",
			Help:      "Non-split traversals that aborted after reaching the size cap.",
		}),
		splitRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkgraph",
			Name:      "split_retries_total",
			Help:      "ChunkContentAuto calls that fell back to ChunkContentSplit.",
		}),
	}
	reg.MustRegister(p.nodesVisited, p.chunkItems, p.aborts, p.splitRetries)
	return p
}

func (p *Prometheus) RecordNodeVisited() { p.nodesVisited.Inc() }
func (p *Prometheus) RecordChunkItem()   { p.chunkItems.Inc() }
func (p *Prometheus) RecordAbort()       { p.aborts.Inc() }
func (p *Prometheus) RecordSplitRetry()  { p.splitRetries.Inc() }
