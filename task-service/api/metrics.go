package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	requestEventName   = "board.request"
	requestEventDomain = "taskboard"
	requestSpanPrefix  = "taskboard.api."
	tracerName         = "taskboard/task-service/api"
	attrPrefix         = "taskboard.request."
)

// requestMetrics collects timings of one API request and reports them as an
// observability event on both the log and the request span.
type requestMetrics struct {
	logger    *log.Logger
	span      trace.Span
	operation string
	route     string
	start     time.Time

	authDuration    time.Duration
	serviceDuration time.Duration
	encodeDuration  time.Duration
	itemsReturned   int
	itemsSet        bool
	errorStage      string
	failure         error
}

func newRequestMetrics(ctx context.Context, logger *log.Logger, operation, route string) (*requestMetrics, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, requestSpanPrefix+operation, trace.WithSpanKind(trace.SpanKindServer))
	return &requestMetrics{
		logger:    logger,
		span:      span,
		operation: operation,
		route:     route,
		start:     time.Now(),
	}, spanCtx
}

func (m *requestMetrics) ObserveAuth(d time.Duration) {
	if d > 0 {
		m.authDuration = d
	}
}

func (m *requestMetrics) ObserveService(d time.Duration) {
	if d > 0 {
		m.serviceDuration = d
	}
}

func (m *requestMetrics) ObserveEncode(d time.Duration) {
	if d > 0 {
		m.encodeDuration = d
	}
}

func (m *requestMetrics) SetItemsReturned(n int) {
	if n < 0 {
		n = 0
	}
	m.itemsReturned = n
	m.itemsSet = true
}

func (m *requestMetrics) SetErrorStage(stage string) {
	if stage != "" {
		m.errorStage = stage
	}
}

// Fail records why a request was answered with an error response.
func (m *requestMetrics) Fail(stage string, err error) {
	m.SetErrorStage(stage)
	if err != nil {
		m.failure = err
	}
}

func (m *requestMetrics) attributes(status int, err error) map[string]any {
	attrs := map[string]any{
		"http.route":             m.route,
		"http.status_code":       status,
		attrPrefix + "operation": m.operation,
		attrPrefix + "total_ms":  durationToMillis(time.Since(m.start)),
	}
	if m.authDuration > 0 {
		attrs[attrPrefix+"auth_ms"] = durationToMillis(m.authDuration)
	}
	if m.serviceDuration > 0 {
		attrs[attrPrefix+"service_ms"] = durationToMillis(m.serviceDuration)
	}
	if m.encodeDuration > 0 {
		attrs[attrPrefix+"encode_ms"] = durationToMillis(m.encodeDuration)
	}
	if m.itemsSet {
		attrs[attrPrefix+"items_returned"] = m.itemsReturned
	}
	if m.errorStage != "" {
		attrs[attrPrefix+"error_stage"] = m.errorStage
	}
	if err != nil {
		attrs["error.message"] = err.Error()
	}
	return attrs
}

// Log emits the observability event and ends the span.
func (m *requestMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	if err == nil {
		err = m.failure
	}
	attrs := m.attributes(status, err)
	severityText, severityNumber := severityForStatus(status, err)

	if m.span != nil {
		kvs := toKeyValues(attrs)
		m.span.SetAttributes(kvs...)
		eventAttrs := append([]attribute.KeyValue{
			attribute.String("event.name", requestEventName),
			attribute.String("event.domain", requestEventDomain),
			attribute.String("severity_text", severityText),
			attribute.Int("severity_number", severityNumber),
		}, kvs...)
		m.span.AddEvent("observability.event", trace.WithAttributes(eventAttrs...))
		if severityNumber >= severityError {
			desc := http.StatusText(status)
			if err != nil {
				desc = err.Error()
			}
			m.span.SetStatus(codes.Error, desc)
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"event.name":      requestEventName,
		"event.domain":    requestEventDomain,
		"attributes":      attrs,
		"severity_text":   severityText,
		"severity_number": severityNumber,
	}
	if m.span != nil {
		if sc := m.span.SpanContext(); sc.IsValid() {
			fields["trace_id"] = sc.TraceID().String()
			fields["span_id"] = sc.SpanID().String()
		}
	}
	entry := m.logger.WithFields(fields)
	switch {
	case severityNumber >= severityError:
		entry.Error("observability.event")
	case severityNumber >= severityWarn:
		entry.Warn("observability.event")
	default:
		entry.Info("observability.event")
	}
}

const (
	severityInfo  = 9
	severityWarn  = 13
	severityError = 17
)

// severityForStatus follows the OpenTelemetry severity numbers.
func severityForStatus(status int, err error) (string, int) {
	switch {
	case status >= http.StatusInternalServerError:
		return "ERROR", severityError
	case status >= http.StatusBadRequest:
		return "WARN", severityWarn
	case status == 0 && err != nil:
		return "ERROR", severityError
	default:
		return "INFO", severityInfo
	}
}

func toKeyValues(attrs map[string]any) []attribute.KeyValue {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case string:
			out = append(out, attribute.String(k, v))
		case int:
			out = append(out, attribute.Int(k, v))
		case int64:
			out = append(out, attribute.Int64(k, v))
		case float64:
			out = append(out, attribute.Float64(k, v))
		case bool:
			out = append(out, attribute.Bool(k, v))
		}
	}
	return out
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
