package telemetry

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const defaultMetricExportInterval = 60 * time.Second

var (
	metricsMutex        sync.RWMutex
	globalMeterProvider *sdkmetric.MeterProvider
	globalMeter         metric.Meter
	metricsEnabled      bool

	// Metric groups enabled via MCP_METRICS_GROUPS
	enabledMetricGroups map[string]bool

	// Tool metrics
	toolCallsCounter      metric.Int64Counter
	toolDurationHistogram metric.Float64Histogram
	toolErrorsCounter     metric.Int64Counter

	// Session metrics
	activeSessionsGauge metric.Int64UpDownCounter
	sessionDurationHist metric.Float64Histogram

	// Sheets API metrics
	apiRequestsCounter   metric.Int64Counter
	apiDurationHistogram metric.Float64Histogram
	apiRetriesCounter    metric.Int64Counter
)

// InitMetrics initialises the OpenTelemetry meter provider. Call after
// InitTracer; the two share the OTLP endpoint configuration. Without an
// endpoint all Record functions become no-ops.
func InitMetrics(logger *logrus.Logger) (func() error, error) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	enabledMetricGroups = parseEnabledMetricGroups()
	if len(enabledMetricGroups) > 0 {
		logger.WithField("enabled_groups", enabledMetricGroups).Debug("OTEL Metrics: Enabled groups configured")
	} else {
		enabledMetricGroups = map[string]bool{
			"tool":    true,
			"session": true,
			"sheets":  true,
		}
		logger.Debug("OTEL Metrics: Using default groups (tool, session, sheets)")
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		logger.Debug("OTEL Metrics: Not configured, using noop meter")
		metricsEnabled = false
		globalMeter = otel.GetMeterProvider().Meter(tracerName)
		return func() error { return nil }, nil
	}

	metricsEnabled = true
	logger.WithField("endpoint", endpoint).Info("OTEL Metrics: Initialising meter")

	protocol := getOTLPProtocol()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var exporter sdkmetric.Exporter
	var err error

	switch protocol {
	case "grpc":
		exporter, err = otlpmetricgrpc.New(ctx)
	case "http/protobuf", "http":
		exporter, err = otlpmetrichttp.New(ctx)
	default:
		logger.WithField("protocol", protocol).Warn("OTEL Metrics: Unknown protocol, defaulting to http")
		exporter, err = otlpmetrichttp.New(ctx)
	}

	if err != nil {
		logger.WithError(err).Warn("OTEL Metrics: Failed to create exporter, falling back to noop meter")
		metricsEnabled = false
		globalMeter = otel.GetMeterProvider().Meter(tracerName)
		return func() error { return nil }, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(getServiceName()),
			semconv.ServiceVersionKey.String(getServiceVersion()),
			attribute.String("deployment.environment", getDeploymentEnvironment()),
		),
		resource.WithFromEnv(),
	)
	if err != nil {
		logger.WithError(err).Warn("OTEL Metrics: Failed to create resource, using default")
		res = resource.Default()
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(getMetricExportInterval(logger)),
		)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(meterProvider)
	globalMeterProvider = meterProvider
	globalMeter = meterProvider.Meter(tracerName)

	logger.Info("OTEL Metrics: Meter initialised successfully")

	if err := initMetricInstruments(logger); err != nil {
		logger.WithError(err).Error("OTEL Metrics: Failed to initialise instruments")
		return func() error { return nil }, err
	}

	return func() error {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()

		if globalMeterProvider != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := globalMeterProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("OTEL Metrics: Failed to shutdown meter provider")
				return err
			}
			logger.Debug("OTEL Metrics: Meter provider shutdown successfully")
		}
		return nil
	}, nil
}

// initMetricInstruments creates the instruments for each enabled group.
// Caller holds metricsMutex.
func initMetricInstruments(logger *logrus.Logger) error {
	var err error

	if !metricsEnabled {
		return nil
	}

	meter := globalMeter

	if enabledMetricGroups["tool"] {
		toolCallsCounter, err = meter.Int64Counter(
			"mcp.tool.calls",
			metric.WithDescription("Total tool invocations"),
			metric.WithUnit("{call}"),
		)
		if err != nil {
			return err
		}

		toolDurationHistogram, err = meter.Float64Histogram(
			"mcp.tool.duration",
			metric.WithDescription("Tool execution duration"),
			metric.WithUnit("ms"),
			metric.WithExplicitBucketBoundaries(10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000),
		)
		if err != nil {
			return err
		}

		toolErrorsCounter, err = meter.Int64Counter(
			"mcp.tool.errors",
			metric.WithDescription("Tool execution errors by type"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			return err
		}

		logger.Debug("OTEL Metrics: Tool metrics initialised")
	}

	if enabledMetricGroups["session"] {
		activeSessionsGauge, err = meter.Int64UpDownCounter(
			"mcp.session.active",
			metric.WithDescription("Active concurrent sessions"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			return err
		}

		sessionDurationHist, err = meter.Float64Histogram(
			"mcp.session.duration",
			metric.WithDescription("Session duration"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(10, 30, 60, 300, 600, 1800, 3600, 7200),
		)
		if err != nil {
			return err
		}

		logger.Debug("OTEL Metrics: Session metrics initialised")
	}

	if enabledMetricGroups["sheets"] {
		apiRequestsCounter, err = meter.Int64Counter(
			"sheets.api.requests",
			metric.WithDescription("Google Sheets API requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			return err
		}

		apiDurationHistogram, err = meter.Float64Histogram(
			"sheets.api.request.duration",
			metric.WithDescription("Google Sheets API request duration"),
			metric.WithUnit("ms"),
			metric.WithExplicitBucketBoundaries(50, 100, 250, 500, 1000, 2500, 5000, 10000),
		)
		if err != nil {
			return err
		}

		apiRetriesCounter, err = meter.Int64Counter(
			"sheets.api.retries",
			metric.WithDescription("Google Sheets API retries after transient failures"),
			metric.WithUnit("{retry}"),
		)
		if err != nil {
			return err
		}

		logger.Debug("OTEL Metrics: Sheets API metrics initialised")
	}

	return nil
}

// IsMetricsEnabled returns true if metrics collection is enabled
func IsMetricsEnabled() bool {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return metricsEnabled
}

// RecordToolCall records a tool invocation with its outcome and duration.
func RecordToolCall(ctx context.Context, toolName string, transport string, success bool, durationMs float64) {
	if !IsMetricsEnabled() || !isMetricGroupEnabled("tool") {
		return
	}

	result := "success"
	if !success {
		result = "error"
	}

	if toolCallsCounter != nil {
		toolCallsCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("tool.name", toolName),
				attribute.String("transport", transport),
				attribute.String("result", result),
			),
		)
	}

	if toolDurationHistogram != nil {
		toolDurationHistogram.Record(ctx, durationMs,
			metric.WithAttributes(
				attribute.String("tool.name", toolName),
				attribute.String("transport", transport),
			),
		)
	}
}

// RecordToolError records a categorised tool error
func RecordToolError(ctx context.Context, toolName string, errorType string) {
	if !IsMetricsEnabled() || !isMetricGroupEnabled("tool") {
		return
	}

	if toolErrorsCounter != nil {
		toolErrorsCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String("tool.name", toolName),
				attribute.String("error.type", errorType),
			),
		)
	}
}

// CategoriseToolError maps errors to metric-friendly categories. String
// matching keeps this package free of a dependency on the sheets error
// types.
func CategoriseToolError(err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "validation error"):
		return "validation"
	case strings.Contains(errStr, "rows inserted but value write failed"):
		return "partial_success"
	case strings.Contains(errStr, "not found"):
		return "not_found"
	case strings.Contains(errStr, "credentials error"):
		return "credentials"
	case strings.Contains(errStr, "transient error"):
		return "transient_api"
	case strings.Contains(errStr, "request error"):
		return "api_rejected"
	case strings.Contains(errStr, "dial tcp"),
		strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "no such host"):
		return "network"
	case strings.Contains(errStr, "timeout"),
		strings.Contains(errStr, "deadline exceeded"):
		return "timeout"
	default:
		return "internal"
	}
}

// RecordSessionStart increments the active sessions gauge.
func RecordSessionStart(ctx context.Context, transport string) {
	if !IsMetricsEnabled() || !isMetricGroupEnabled("session") {
		return
	}

	if activeSessionsGauge != nil {
		activeSessionsGauge.Add(ctx, 1,
			metric.WithAttributes(attribute.String("transport", transport)),
		)
	}
}

// RecordSessionEnd decrements the active sessions gauge and records the
// session duration.
func RecordSessionEnd(ctx context.Context, transport string, durationSeconds float64) {
	if !IsMetricsEnabled() || !isMetricGroupEnabled("session") {
		return
	}

	if activeSessionsGauge != nil {
		activeSessionsGauge.Add(ctx, -1,
			metric.WithAttributes(attribute.String("transport", transport)),
		)
	}

	if sessionDurationHist != nil {
		sessionDurationHist.Record(ctx, durationSeconds,
			metric.WithAttributes(attribute.String("transport", transport)),
		)
	}
}

// RecordSheetsAPICall records one Sheets API request and its duration.
func RecordSheetsAPICall(ctx context.Context, operation string, success bool, durationMs float64) {
	if !IsMetricsEnabled() || !isMetricGroupEnabled("sheets") {
		return
	}

	result := "success"
	if !success {
		result = "error"
	}

	if apiRequestsCounter != nil {
		apiRequestsCounter.Add(ctx, 1,
			metric.WithAttributes(
				attribute.String(AttrSheetsOperation, operation),
				attribute.String("result", result),
			),
		)
	}

	if apiDurationHistogram != nil {
		apiDurationHistogram.Record(ctx, durationMs,
			metric.WithAttributes(attribute.String(AttrSheetsOperation, operation)),
		)
	}
}

// RecordSheetsRetry counts a retry attempt after a transient API failure.
func RecordSheetsRetry(ctx context.Context, operation string) {
	if !IsMetricsEnabled() || !isMetricGroupEnabled("sheets") {
		return
	}

	if apiRetriesCounter != nil {
		apiRetriesCounter.Add(ctx, 1,
			metric.WithAttributes(attribute.String(AttrSheetsOperation, operation)),
		)
	}
}

func parseEnabledMetricGroups() map[string]bool {
	enabled := make(map[string]bool)
	groupsStr := os.Getenv("MCP_METRICS_GROUPS")
	if groupsStr == "" {
		return enabled
	}

	groups := strings.SplitSeq(groupsStr, ",")
	for group := range groups {
		group = strings.TrimSpace(strings.ToLower(group))
		if group != "" {
			enabled[group] = true
		}
	}

	return enabled
}

func isMetricGroupEnabled(group string) bool {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return enabledMetricGroups[group]
}

func getMetricExportInterval(logger *logrus.Logger) time.Duration {
	intervalStr := os.Getenv("OTEL_METRIC_EXPORT_INTERVAL")
	if intervalStr == "" {
		return defaultMetricExportInterval
	}

	// The OTEL spec defines this variable in milliseconds
	intervalMs, err := time.ParseDuration(intervalStr + "ms")
	if err != nil {
		logger.WithField("value", intervalStr).Warn("OTEL Metrics: Invalid export interval, using default")
		return defaultMetricExportInterval
	}

	if intervalMs < time.Second {
		logger.WithField("value", intervalStr).Warn("OTEL Metrics: Export interval too short, using 1s minimum")
		return time.Second
	}

	return intervalMs
}
