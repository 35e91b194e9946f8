// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide structured logger.
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// ContextKey is the type of request-scoped values read by Ctx.
type ContextKey string

// Context keys populated by the HTTP middleware.
const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	TraceIDKey   ContextKey = "trace_id"
)

// InitLogger configures Logger for the environment: JSON in production,
// a console writer everywhere else.
func InitLogger(env, level string) {
	var out io.Writer = os.Stdout
	if env != "production" && env != "prod" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)
	Logger = zerolog.New(out).With().Timestamp().Str("service", "inkwell").Logger()
}

// Ctx returns Logger enriched with the request, user and trace ids carried by ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger
	if ctx == nil {
		return &l
	}
	c := l.With()
	if rid := ExtractRequestID(ctx); rid != "" {
		c = c.Str("request_id", rid)
	}
	if uid := ExtractUserID(ctx); uid != "" {
		c = c.Str("user_id", uid)
	}
	if tid := ExtractTraceID(ctx); tid != "" {
		c = c.Str("trace_id", tid)
	}
	l = c.Logger()
	return &l
}

// WithRequestID returns ctx carrying the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithUserID returns ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

// WithTraceID returns ctx carrying the trace id.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}

// ExtractRequestID returns the request ID from the context if set.
func ExtractRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// ExtractUserID returns the user ID from the context if set.
func ExtractUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

// ExtractTraceID returns the trace ID from the context if set.
func ExtractTraceID(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}

// OpLogger logs normalized failures of one component.
type OpLogger struct {
	component string
}

// NewOpLogger creates an OpLogger for the given component.
func NewOpLogger(component string) *OpLogger {
	return &OpLogger{component: component}
}

// Failure logs err for operation and counts it.
func (l *OpLogger) Failure(ctx context.Context, operation string, err error, fields map[string]interface{}) {
	BackendFailures.WithLabelValues(operation).Inc()
	Ctx(ctx).Error().
		Err(err).
		Str("component", l.component).
		Str("operation", operation).
		Fields(fields).
		Msg("operation failed")
}

// Debug logs a successful operation at debug level.
func (l *OpLogger) Debug(ctx context.Context, operation string, fields map[string]interface{}) {
	Ctx(ctx).Debug().
		Str("component", l.component).
		Str("operation", operation).
		Fields(fields).
		Msg("operation completed")
}

// WSLogger provides structured logging for WebSocket operations.
type WSLogger struct {
	hubName string
}

// NewWSLogger creates a new WSLogger for the given hub.
func NewWSLogger(hubName string) *WSLogger {
	return &WSLogger{hubName: hubName}
}

// LogConnect logs a WebSocket connection event.
func (l *WSLogger) LogConnect(ctx context.Context, userID string) {
	Ctx(ctx).Info().Str("hub", l.hubName).Str("viewer", userID).Msg("websocket connected")
}

// LogDisconnect logs a WebSocket disconnection event.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID, reason string) {
	Ctx(ctx).Info().Str("hub", l.hubName).Str("viewer", userID).Str("reason", reason).Msg("websocket disconnected")
}

// LogError logs a WebSocket error event.
func (l *WSLogger) LogError(ctx context.Context, userID string, err error, eventType string) {
	Ctx(ctx).Error().Err(err).Str("hub", l.hubName).Str("viewer", userID).Str("event_type", eventType).Msg("websocket error")
}

// LogAsyncOperationError logs an error in a background goroutine.
func LogAsyncOperationError(ctx context.Context, operation string, err error, fields map[string]interface{}) {
	Ctx(ctx).Error().Err(err).Str("operation", operation).Str("type", "async_error").Fields(fields).Msg("async operation failed")
}
