// Package instrumentation provides OpenTelemetry instrumentation for inboxsort.
//
// # Metrics
//
// Classifier metrics (recorded through the vsm.Observer implementation on *Metrics):
//   - inboxsort_classifications_total: classified messages by label and fallback
//   - inboxsort_classify_duration_seconds: classification latency
//   - inboxsort_learn_batches_total: processed learn batches by status
//   - inboxsort_learned_emails_total: messages folded into centroids by label
//   - inboxsort_learn_duration_seconds: learn batch latency
//   - inboxsort_model_loads_total: model artifact loads by status
//   - inboxsort_resident_centroids: centroids held by the classifier
//
// Server metrics:
//   - http_requests_total, http_request_duration_seconds
//   - google_api_operations_total, google_api_operation_duration_seconds
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// Category labels outside KnownCategories are reported as "other" unless
// METRICS_DETAILED_LABELS is set.
//
// # Tracing
//
// Spans are created for training (vsm.train), learn batches (vsm.learn),
// inbox classification (vsm.classify), MCP tool invocations (tool.<name>)
// and Gmail API calls (gmail.<operation>).
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: inboxsort)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_ACCOUNT: tool audit log
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	svc := vsm.New(vsm.Options{Observer: provider.Observer()})
package instrumentation
