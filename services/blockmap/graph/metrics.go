// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for graph operations.
var (
	tracer = otel.Tracer("blockmap.graph")
	meter  = otel.Meter("blockmap.graph")
)

// Metrics for graph building operations.
var (
	buildLatency  metric.Float64Histogram
	buildTotal    metric.Int64Counter
	nodesCreated  metric.Int64Histogram
	linksCreated  metric.Int64Histogram
	recordsDenied metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"blockmap_graph_build_duration_seconds",
			metric.WithDescription("Duration of graph build operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"blockmap_graph_builds_total",
			metric.WithDescription("Total number of graph build operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesCreated, err = meter.Int64Histogram(
			"blockmap_graph_nodes",
			metric.WithDescription("Number of nodes per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		linksCreated, err = meter.Int64Histogram(
			"blockmap_graph_links",
			metric.WithDescription("Number of links per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		recordsDenied, err = meter.Int64Counter(
			"blockmap_graph_records_skipped_total",
			metric.WithDescription("Records dropped during graph building"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordBuildMetrics records metrics for a build operation.
func recordBuildMetrics(ctx context.Context, duration time.Duration, stats BuildStats, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)
	nodesCreated.Record(ctx, int64(stats.NodesCreated))
	linksCreated.Record(ctx, int64(stats.LinksCreated))

	if stats.RecordsSkipped > 0 {
		recordsDenied.Add(ctx, int64(stats.RecordsSkipped))
	}
}

// startBuildSpan creates a span for a build operation.
func startBuildSpan(ctx context.Context, recordCount int, hideParts bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, "GraphBuilder.Build",
		trace.WithAttributes(
			attribute.Int("graph.record_count", recordCount),
			attribute.Bool("graph.hide_parts", hideParts),
		),
	)
}

// setBuildSpanResult sets the result attributes on a build span.
func setBuildSpanResult(span trace.Span, result *BuildResult) {
	span.SetAttributes(
		attribute.String("graph.build_id", result.BuildID),
		attribute.Int("graph.node_count", result.Stats.NodesCreated),
		attribute.Int("graph.link_count", result.Stats.LinksCreated),
		attribute.Int("graph.records_skipped", result.Stats.RecordsSkipped),
		attribute.Bool("graph.incomplete", result.Incomplete),
	)
}
