package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	sessionIDKey contextKey = "mcp.session.id"

	tracerName = "google-sheets-mcp"

	// Span attribute size limits
	defaultMaxAttributeSize = 4096  // 4KB default for span attributes
	minAttributeSize        = 1024  // 1KB minimum
	maxAttributeSize        = 65536 // 64KB maximum
)

var (
	// globalMutex protects access to global tracer variables
	globalMutex sync.RWMutex
	// global tracer instance
	globalTracer trace.Tracer
	// global tracer provider for shutdown
	globalTracerProvider *sdktrace.TracerProvider
	// tools excluded from span creation
	disabledTools map[string]bool
	// is tracing enabled
	tracingEnabled bool
	// session span context for stdio transport; tool spans parent onto it
	globalSessionSpanContext trace.SpanContext
	globalSessionID          string
)

// otelErrorHandler routes OTEL SDK errors through our logger. In stdio
// mode anything the SDK would print to stderr corrupts the MCP protocol
// stream, so errors land in the log file at debug level instead.
type otelErrorHandler struct {
	logger *logrus.Logger
}

func (h *otelErrorHandler) Handle(err error) {
	if err == nil {
		return
	}
	h.logger.WithError(err).Debug("OTEL: SDK error occurred")
}

// InitTracer initialises the OpenTelemetry tracer from the standard OTEL
// environment variables. Without OTEL_EXPORTER_OTLP_ENDPOINT the server
// runs with a noop tracer; a broken exporter also falls back to noop so
// tracing problems never take the server down.
func InitTracer(logger *logrus.Logger) (func() error, error) {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	// Clear any previous session data (in case of restart)
	globalSessionSpanContext = trace.SpanContext{}
	globalSessionID = ""

	disabledTools = parseDisabledTools()
	if len(disabledTools) > 0 {
		logger.WithField("disabled_tools", disabledTools).Debug("OTEL: Tracing disabled for some tools")
	}

	if isDisabled := os.Getenv("OTEL_SDK_DISABLED"); strings.ToLower(isDisabled) == "true" {
		logger.Debug("OTEL: Explicitly disabled via OTEL_SDK_DISABLED")
		globalTracer = noop.NewTracerProvider().Tracer(tracerName)
		tracingEnabled = false
		return func() error { return nil }, nil
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		logger.Debug("OTEL: Not configured (OTEL_EXPORTER_OTLP_ENDPOINT not set), using noop tracer")
		globalTracer = noop.NewTracerProvider().Tracer(tracerName)
		tracingEnabled = false
		return func() error { return nil }, nil
	}

	tracingEnabled = true
	logger.WithField("endpoint", endpoint).Info("OTEL: Initialising tracer")

	otel.SetErrorHandler(&otelErrorHandler{logger: logger})

	protocol := getOTLPProtocol()
	logger.WithField("protocol", protocol).Debug("OTEL: Using protocol")

	var exporter *otlptrace.Exporter
	var err error

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch protocol {
	case "grpc":
		exporter, err = otlptracegrpc.New(ctx)
	case "http/protobuf", "http":
		exporter, err = otlptracehttp.New(ctx)
	default:
		logger.WithField("protocol", protocol).Warn("OTEL: Unknown protocol, defaulting to http")
		exporter, err = otlptracehttp.New(ctx)
	}

	if err != nil {
		logger.WithError(err).Warn("OTEL: Failed to create exporter, falling back to noop tracer")
		globalTracer = noop.NewTracerProvider().Tracer(tracerName)
		tracingEnabled = false
		return func() error { return nil }, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(getServiceName()),
			semconv.ServiceVersionKey.String(getServiceVersion()),
			attribute.String("deployment.environment", getDeploymentEnvironment()),
		),
		resource.WithFromEnv(), // Allow additional attributes from OTEL_RESOURCE_ATTRIBUTES
	)
	if err != nil {
		logger.WithError(err).Warn("OTEL: Failed to create resource, using default")
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(createSampler(logger)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	globalTracer = tp.Tracer(tracerName)
	globalTracerProvider = tp

	logger.Info("OTEL: Tracer initialised successfully")

	return func() error {
		globalMutex.Lock()
		defer globalMutex.Unlock()

		if globalTracerProvider != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := globalTracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("OTEL: Failed to shutdown tracer provider")
				return fmt.Errorf("failed to shutdown tracer provider: %w", err)
			}
			logger.Debug("OTEL: Tracer provider shutdown successfully")
		}
		return nil
	}, nil
}

// GetTracer returns the global tracer, or a noop tracer before InitTracer.
func GetTracer() trace.Tracer {
	globalMutex.RLock()
	defer globalMutex.RUnlock()

	if globalTracer == nil {
		return noop.NewTracerProvider().Tracer(tracerName)
	}
	return globalTracer
}

// IsEnabled returns true if tracing is enabled
func IsEnabled() bool {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return tracingEnabled
}

// IsToolTracingDisabled reports whether MCP_TRACING_DISABLED_TOOLS
// excludes the tool from span creation.
func IsToolTracingDisabled(toolName string) bool {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return disabledTools[toolName]
}

// GenerateSessionID generates a new unique session ID
func GenerateSessionID() string {
	return uuid.New().String()
}

// ContextWithSessionID adds a session ID to the context
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionIDFromContext retrieves the session ID from the context
func SessionIDFromContext(ctx context.Context) string {
	if sessionID, ok := ctx.Value(sessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// StartSessionSpan creates the session span that parents all tool spans.
// The span is ended (and flushed) immediately so the backend has the
// parent before any child tool span arrives; the returned span is a noop.
func StartSessionSpan(ctx context.Context, sessionID string, transport string) (context.Context, trace.Span) {
	if !tracingEnabled {
		return ctx, trace.SpanFromContext(ctx)
	}

	tracer := GetTracer()

	ctx, sessionSpan := tracer.Start(ctx, SpanNameSession,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(AttrMCPSessionID, sessionID),
			attribute.String(AttrMCPTransport, transport),
		),
	)

	sessionSpanContext := sessionSpan.SpanContext()
	sessionSpan.End()

	globalMutex.RLock()
	tp := globalTracerProvider
	globalMutex.RUnlock()

	if tp != nil {
		flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tp.ForceFlush(flushCtx) // tracing is best-effort
	}

	globalMutex.Lock()
	globalSessionSpanContext = sessionSpanContext
	globalSessionID = sessionID
	globalMutex.Unlock()

	return ctx, trace.SpanFromContext(ctx)
}

// EndSessionSpan clears the session data recorded by StartSessionSpan.
func EndSessionSpan() {
	globalMutex.Lock()
	globalSessionSpanContext = trace.SpanContext{}
	globalSessionID = ""
	globalMutex.Unlock()
}

// StartToolSpan creates a span for a tool execution, parented onto the
// session span when one exists. The caller must call span.End, normally
// via EndToolSpan.
func StartToolSpan(ctx context.Context, toolName string, args map[string]any) (context.Context, trace.Span) {
	if !tracingEnabled || IsToolTracingDisabled(toolName) {
		return ctx, trace.SpanFromContext(ctx)
	}

	globalMutex.RLock()
	sessionSpanCtx := globalSessionSpanContext
	sessionID := globalSessionID
	globalMutex.RUnlock()

	tracer := GetTracer()

	if sessionSpanCtx.IsValid() {
		// Round-trip the session span context through the propagator to
		// establish the parent-child relationship.
		carrier := propagation.MapCarrier{}
		prop := otel.GetTextMapPropagator()
		sessionCtx := trace.ContextWithSpanContext(context.Background(), sessionSpanCtx)
		prop.Inject(sessionCtx, carrier)
		ctx = prop.Extract(ctx, carrier)
	}

	ctx, span := tracer.Start(ctx, SpanNameToolExecute,
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	span.SetAttributes(attribute.String(AttrMCPToolName, toolName))
	if sessionID != "" {
		span.SetAttributes(attribute.String(AttrMCPSessionID, sessionID))
	}

	sanitisedArgs := SanitiseArguments(args)
	maxAttrSize := getMaxAttributeSize()
	if len(sanitisedArgs) <= maxAttrSize {
		span.SetAttributes(attribute.String("mcp.tool.arguments", sanitisedArgs))
	} else {
		span.SetAttributes(
			attribute.String("mcp.tool.arguments", TruncateString(sanitisedArgs, maxAttrSize)),
			attribute.Bool("mcp.tool.arguments.truncated", true),
		)
	}

	return ctx, span
}

// EndToolSpan ends a tool execution span with success or error
func EndToolSpan(span trace.Span, err error) {
	if span == nil {
		return
	}

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.Bool(AttrMCPToolSuccess, false),
			attribute.String(AttrMCPToolError, err.Error()),
		)
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Bool(AttrMCPToolSuccess, true))
	}

	span.End()
}

// AnnotateSpreadsheet tags the active span with the spreadsheet a tool
// call is touching.
func AnnotateSpreadsheet(ctx context.Context, spreadsheetID string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.String(AttrSheetsSpreadsheetID, spreadsheetID))
}

// AnnotateRange tags the active span with the A1 range in play.
func AnnotateRange(ctx context.Context, rng string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.String(AttrSheetsRange, rng))
}

// AnnotateRowCount tags the active span with the number of rows moved.
func AnnotateRowCount(ctx context.Context, rows int64) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64(AttrSheetsRowCount, rows))
}

// Helper functions

func parseDisabledTools() map[string]bool {
	disabled := make(map[string]bool)
	disabledStr := os.Getenv("MCP_TRACING_DISABLED_TOOLS")
	if disabledStr == "" {
		return disabled
	}

	tools := strings.SplitSeq(disabledStr, ",")
	for tool := range tools {
		tool = strings.TrimSpace(tool)
		if tool != "" {
			disabled[tool] = true
		}
	}

	return disabled
}

func getOTLPProtocol() string {
	protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")
	if protocol == "" {
		// Guess from the endpoint: 4317 is the conventional gRPC port
		endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		if strings.Contains(endpoint, ":4317") {
			return "grpc"
		}
		return "http/protobuf"
	}
	return protocol
}

func getServiceName() string {
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	return tracerName
}

func getServiceVersion() string {
	if version := os.Getenv("GOOGLE_SHEETS_MCP_VERSION"); version != "" {
		return version
	}
	return "dev"
}

func getDeploymentEnvironment() string {
	for _, envVar := range []string{"ENVIRONMENT", "ENV", "DEPLOYMENT_ENV"} {
		if env := os.Getenv(envVar); env != "" {
			return env
		}
	}

	if attrs := os.Getenv("OTEL_RESOURCE_ATTRIBUTES"); attrs != "" {
		pairs := strings.SplitSeq(attrs, ",")
		for pair := range pairs {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) == 2 && kv[0] == "deployment.environment" {
				return kv[1]
			}
		}
	}

	return "development"
}

func createSampler(logger *logrus.Logger) sdktrace.Sampler {
	samplerType := os.Getenv("OTEL_TRACES_SAMPLER")
	if samplerType == "" {
		return sdktrace.AlwaysSample()
	}

	samplerArg := os.Getenv("OTEL_TRACES_SAMPLER_ARG")

	switch samplerType {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		if samplerArg != "" {
			return sdktrace.TraceIDRatioBased(parseFloat(samplerArg, 1.0))
		}
		return sdktrace.AlwaysSample()
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(parseFloat(samplerArg, 1.0)))
	default:
		logger.WithField("sampler", samplerType).Warn("OTEL: Unknown sampler type, using always_on")
		return sdktrace.AlwaysSample()
	}
}

func parseFloat(s string, defaultVal float64) float64 {
	var f float64
	if _, err := fmt.Sscanf(s, "%f", &f); err != nil {
		return defaultVal
	}
	if f < 0.0 {
		return 0.0
	}
	if f > 1.0 {
		return 1.0
	}
	return f
}

func getMaxAttributeSize() int {
	sizeStr := os.Getenv("MCP_TRACING_MAX_ATTRIBUTE_SIZE")
	if sizeStr == "" {
		return defaultMaxAttributeSize
	}

	var size int
	if _, err := fmt.Sscanf(sizeStr, "%d", &size); err != nil {
		return defaultMaxAttributeSize
	}

	if size < minAttributeSize {
		return minAttributeSize
	}
	if size > maxAttributeSize {
		return maxAttributeSize
	}

	return size
}
