package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	AnswerDuration  metric.Float64Histogram
	ChunksIndexed   metric.Int64Counter
	DegradedEvents  metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("rag-chatbot-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	answerDuration, err := meter.Float64Histogram(
		"rag.answer.duration",
		metric.WithDescription("End-to-end answer pipeline duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"ingest.chunks.indexed",
		metric.WithDescription("Total chunks written to tenant document indexes"),
	)
	if err != nil {
		return nil, err
	}

	degradedEvents, err := meter.Int64Counter(
		"pipeline.degraded.events",
		metric.WithDescription("Degraded-path events (history lookup, persistence, model stream)"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		AnswerDuration:  answerDuration,
		ChunksIndexed:   chunksIndexed,
		DegradedEvents:  degradedEvents,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordAnswerDuration records the duration of one answer pipeline run
func (m *Metrics) RecordAnswerDuration(ctx context.Context, tenant string, seconds float64) {
	m.AnswerDuration.Record(ctx, seconds, metric.WithAttributes(
		attribute.String("tenant.id", tenant),
	))
}

// RecordChunksIndexed records chunks written for a tenant
func (m *Metrics) RecordChunksIndexed(ctx context.Context, tenant string, count int) {
	m.ChunksIndexed.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("tenant.id", tenant),
	))
}

// RecordDegradedEvent records one degraded-path event by stage
func (m *Metrics) RecordDegradedEvent(ctx context.Context, stage string) {
	m.DegradedEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline.stage", stage),
	))
}
