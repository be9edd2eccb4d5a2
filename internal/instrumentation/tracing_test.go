package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpans installs an in-memory tracer provider for the duration of the test.
func recordSpans(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func spanAttrs(s tracetest.SpanStub) map[string]any {
	out := make(map[string]any, len(s.Attributes))
	for _, kv := range s.Attributes {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("vsm_learn").
		WithService(ServiceGmail).
		WithOperation(OperationList).
		WithAccount("work").
		WithLabel("Work").
		WithBatch("b-1").
		WithCount(3).
		WithDimensions(120).
		Build()

	require.Len(t, attrs, 8)

	m := make(map[string]any)
	for _, a := range attrs {
		m[string(a.Key)] = a.Value.AsInterface()
	}
	assert.Equal(t, "vsm_learn", m[SpanAttrTool])
	assert.Equal(t, ServiceGmail, m[SpanAttrService])
	assert.Equal(t, OperationList, m[SpanAttrOperation])
	assert.Equal(t, "work", m[SpanAttrAccount])
	assert.Equal(t, "Work", m[SpanAttrLabel])
	assert.Equal(t, "b-1", m[SpanAttrBatchID])
	assert.Equal(t, int64(3), m[SpanAttrCount])
	assert.Equal(t, int64(120), m[SpanAttrDimensions])
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("vsm_classify").
		WithAccount("").
		WithLabel("").
		WithBatch("").
		Build()

	assert.Len(t, attrs, 1)
}

func TestStartSpan(t *testing.T) {
	exporter := recordSpans(t)

	ctx, span := StartSpan(context.Background(), SpanTrain, attribute.Int(SpanAttrCount, 3))
	assert.NotEmpty(t, GetTraceID(ctx))
	assert.NotEmpty(t, GetSpanID(ctx))
	assert.Contains(t, SpanContextString(ctx), "trace_id=")
	SetSpanSuccess(span)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "vsm.train", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, int64(3), spanAttrs(spans[0])[SpanAttrCount])
}

func TestStartToolSpan(t *testing.T) {
	exporter := recordSpans(t)

	_, span := StartToolSpan(context.Background(), "vsm_classify")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.vsm_classify", spans[0].Name)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
	assert.Equal(t, "vsm_classify", spanAttrs(spans[0])[SpanAttrTool])
}

func TestStartGmailSpan(t *testing.T) {
	exporter := recordSpans(t)

	_, span := StartGmailSpan(context.Background(), OperationList)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "gmail.list", spans[0].Name)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, ServiceGmail, attrs[SpanAttrService])
	assert.Equal(t, OperationList, attrs[SpanAttrOperation])
}

func TestSetSpanError(t *testing.T) {
	exporter := recordSpans(t)

	_, span := StartSpan(context.Background(), SpanLearn)
	SetSpanError(span, nil)
	SetSpanError(span, errors.New("queue closed"))
	AddSpanEvent(span, "batch_dropped")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "queue closed", spans[0].Status.Description)

	var names []string
	for _, ev := range spans[0].Events {
		names = append(names, ev.Name)
	}
	assert.Contains(t, names, "batch_dropped")
}

func TestSpanIDs_NoSpan(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
	assert.Empty(t, SpanContextString(ctx))
}
