package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type pipelineMetrics struct {
	queries   metric.Int64Counter
	turns     metric.Int64Counter
	fallbacks metric.Int64Counter
}

func newMetrics() (*pipelineMetrics, error) {
	meter := otel.Meter("github.com/loqalabs/vox-relay/pipeline")
	m := &pipelineMetrics{}
	var err error
	if m.queries, err = meter.Int64Counter("vox_pipeline_queries_total",
		metric.WithDescription("Language-model queries by outcome")); err != nil {
		return nil, err
	}
	if m.turns, err = meter.Int64Counter("vox_pipeline_turns_total",
		metric.WithDescription("Conversational turns by outcome")); err != nil {
		return nil, err
	}
	if m.fallbacks, err = meter.Int64Counter("vox_pipeline_fallbacks_total",
		metric.WithDescription("Fallback audio substitutions")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *pipelineMetrics) countQuery(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.queries.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *pipelineMetrics) countTurn(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.turns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *pipelineMetrics) countFallback(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
