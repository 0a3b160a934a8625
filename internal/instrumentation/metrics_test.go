package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumValue(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s is %T, not an int64 sum", m.Name, m.Data)
	}
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		if len(attrs) == 0 || dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// Should not panic
	m.RecordHTTPRequest(ctx, "GET", "/mcp", 200, time.Millisecond)
	m.RecordProviderOperation(ctx, OperationCreate, StatusSuccess, time.Millisecond)
	m.RecordDeliveryOutcome(ctx, OutcomeTimeout, "queued", 10)
	m.RecordToolInvocation(ctx, "send_sms", StatusSuccess, time.Second)
}

func TestMetrics_RecordProviderOperation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderOperation(ctx, OperationCreate, StatusSuccess, 100*time.Millisecond)
	m.RecordProviderOperation(ctx, OperationFetch, StatusSuccess, 50*time.Millisecond)
	m.RecordProviderOperation(ctx, OperationFetch, StatusSuccess, 50*time.Millisecond)
	m.RecordProviderOperation(ctx, OperationFetch, StatusError, 50*time.Millisecond)

	got := collect(t, reader)
	ops := got["twilio_api_operations_total"]

	if v := sumValue(t, ops); v != 4 {
		t.Errorf("total operations = %d, want 4", v)
	}
	if v := sumValue(t, ops,
		attribute.String(attrOperation, OperationFetch),
		attribute.String(attrStatus, StatusSuccess),
	); v != 2 {
		t.Errorf("successful fetches = %d, want 2", v)
	}
	if _, ok := got["twilio_api_operation_duration_seconds"]; !ok {
		t.Error("missing twilio_api_operation_duration_seconds")
	}
}

func TestMetrics_RecordDeliveryOutcome(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordDeliveryOutcome(ctx, OutcomeSuccess, "delivered", 3)
	m.RecordDeliveryOutcome(ctx, OutcomeTimeout, "something-new", 10)

	got := collect(t, reader)
	outcomes := got["sms_delivery_outcomes_total"]

	if v := sumValue(t, outcomes,
		attribute.String(attrOutcome, OutcomeSuccess),
		attribute.String(attrStatus, "delivered"),
	); v != 1 {
		t.Errorf("success/delivered = %d, want 1", v)
	}
	if v := sumValue(t, outcomes,
		attribute.String(attrOutcome, OutcomeTimeout),
		attribute.String(attrStatus, "other"),
	); v != 1 {
		t.Errorf("timeout/other = %d, want 1", v)
	}

	hist, ok := got["sms_delivery_poll_attempts"].Data.(metricdata.Histogram[int64])
	if !ok {
		t.Fatal("sms_delivery_poll_attempts is not an int64 histogram")
	}
	var count uint64
	var total int64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		total += dp.Sum
	}
	if count != 2 || total != 13 {
		t.Errorf("poll attempts count=%d sum=%d, want 2 and 13", count, total)
	}
}

func TestMetrics_RecordHTTPRequest_NormalizesPath(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 10*time.Millisecond)
	m.RecordHTTPRequest(ctx, "GET", "/wp-admin/login.php", 404, time.Millisecond)

	reqs := collect(t, reader)["http_requests_total"]
	if v := sumValue(t, reqs,
		attribute.String(attrMethod, "GET"),
		attribute.String(attrPath, "other"),
		attribute.String(attrStatus, "404"),
	); v != 1 {
		t.Errorf("normalized 404 count = %d, want 1", v)
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToolInvocation(ctx, "send_sms", StatusSuccess, 4*time.Second)
	m.RecordToolInvocation(ctx, "send_sms", StatusError, time.Second)

	got := collect(t, reader)
	if v := sumValue(t, got["mcp_tool_invocations_total"], attribute.String(attrTool, "send_sms"), attribute.String(attrStatus, StatusError)); v != 1 {
		t.Errorf("errored invocations = %d, want 1", v)
	}
	if _, ok := got["mcp_tool_duration_seconds"]; !ok {
		t.Error("missing mcp_tool_duration_seconds")
	}
}
