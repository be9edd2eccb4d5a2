package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrAccount   = "account"
	attrLabel     = "label"
	attrFallback  = "fallback"
)

// Metrics provides methods for recording observability metrics.
//
// A zero Metrics is a valid no-op recorder. *Metrics implements vsm.Observer.
type Metrics struct {
	// Classifier metrics
	classificationsTotal metric.Int64Counter
	classifyDuration     metric.Float64Histogram
	learnBatchesTotal    metric.Int64Counter
	learnedEmailsTotal   metric.Int64Counter
	learnDuration        metric.Float64Histogram
	modelLoadsTotal      metric.Int64Counter
	residentCentroids    metric.Int64UpDownCounter

	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// Classifier Metrics
	m.classificationsTotal, err = meter.Int64Counter(
		"inboxsort_classifications_total",
		metric.WithDescription("Total number of classified messages"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inboxsort_classifications_total counter: %w", err)
	}

	m.classifyDuration, err = meter.Float64Histogram(
		"inboxsort_classify_duration_seconds",
		metric.WithDescription("Classification duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inboxsort_classify_duration_seconds histogram: %w", err)
	}

	m.learnBatchesTotal, err = meter.Int64Counter(
		"inboxsort_learn_batches_total",
		metric.WithDescription("Total number of processed learn batches"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inboxsort_learn_batches_total counter: %w", err)
	}

	m.learnedEmailsTotal, err = meter.Int64Counter(
		"inboxsort_learned_emails_total",
		metric.WithDescription("Total number of messages folded into centroids"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inboxsort_learned_emails_total counter: %w", err)
	}

	m.learnDuration, err = meter.Float64Histogram(
		"inboxsort_learn_duration_seconds",
		metric.WithDescription("Learn batch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inboxsort_learn_duration_seconds histogram: %w", err)
	}

	m.modelLoadsTotal, err = meter.Int64Counter(
		"inboxsort_model_loads_total",
		metric.WithDescription("Total number of model artifact loads"),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inboxsort_model_loads_total counter: %w", err)
	}

	m.residentCentroids, err = meter.Int64UpDownCounter(
		"inboxsort_resident_centroids",
		metric.WithDescription("Number of centroids held by the classifier"),
		metric.WithUnit("{centroid}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create inboxsort_resident_centroids gauge: %w", err)
	}

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Google API Metrics
	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	// MCP Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) categoryLabel(label string) string {
	if m.detailedLabels {
		return label
	}
	return CategoryLabel(label)
}

// ObserveClassify records one classification with its winning label and
// whether the low-confidence fallback produced it.
func (m *Metrics) ObserveClassify(ctx context.Context, label string, fallback bool, d time.Duration) {
	if m.classificationsTotal == nil || m.classifyDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrLabel, m.categoryLabel(label)),
		attribute.Bool(attrFallback, fallback),
	}

	m.classificationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.classifyDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// ObserveLearn records a processed learn batch. learned holds the number of
// messages applied per label.
func (m *Metrics) ObserveLearn(ctx context.Context, status string, learned map[string]int, d time.Duration) {
	if m.learnBatchesTotal == nil || m.learnedEmailsTotal == nil || m.learnDuration == nil {
		return // Instrumentation not initialized
	}

	statusAttr := metric.WithAttributes(attribute.String(attrStatus, status))
	m.learnBatchesTotal.Add(ctx, 1, statusAttr)
	m.learnDuration.Record(ctx, d.Seconds(), statusAttr)

	for label, n := range learned {
		if n <= 0 {
			continue
		}
		m.learnedEmailsTotal.Add(ctx, int64(n),
			metric.WithAttributes(attribute.String(attrLabel, m.categoryLabel(label))))
	}
}

// ObserveModelLoad records a model artifact load attempt.
func (m *Metrics) ObserveModelLoad(ctx context.Context, status string) {
	if m.modelLoadsTotal == nil {
		return // Instrumentation not initialized
	}

	m.modelLoadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// ObserveResidentCentroids adjusts the resident centroid gauge by delta.
func (m *Metrics) ObserveResidentCentroids(ctx context.Context, delta int64) {
	if m.residentCentroids == nil || delta == 0 {
		return // Instrumentation not initialized
	}

	m.residentCentroids.Add(ctx, delta)
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (gmail)
//   - operation: Operation type (list, get)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	m.RecordToolInvocationWithAccount(ctx, toolName, status, "", duration)
}

// RecordToolInvocationWithAccount records an MCP tool invocation with account info.
// The account is only attached when detailedLabels is enabled.
func (m *Metrics) RecordToolInvocationWithAccount(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
