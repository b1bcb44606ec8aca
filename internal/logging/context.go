package logging

import (
	"context"
)

type contextKey string

const (
	loggerKey      contextKey = "logger"
	queryIDKey     contextKey = "query_id"
	executionIDKey contextKey = "execution_id"
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, falls back to global.
// The returned logger carries the query fields stored in ctx.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(loggerKey).(*Logger)
	if !ok {
		logger = global
	}
	return logger.WithContext(ctx)
}

// WithQueryID adds a query ID to the context
func WithQueryID(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, queryIDKey, queryID)
}

// WithExecutionID adds an execution ID to the context
func WithExecutionID(ctx context.Context, executionID string) context.Context {
	return context.WithValue(ctx, executionIDKey, executionID)
}

// QueryID returns the query ID stored in ctx, or ""
func QueryID(ctx context.Context) string {
	id, _ := ctx.Value(queryIDKey).(string)
	return id
}

// ExecutionID returns the execution ID stored in ctx, or ""
func ExecutionID(ctx context.Context) string {
	id, _ := ctx.Value(executionIDKey).(string)
	return id
}

func extractContextFields(ctx context.Context) []interface{} {
	var fields []interface{}

	if id := QueryID(ctx); id != "" {
		fields = append(fields, "query_id", id)
	}

	if id := ExecutionID(ctx); id != "" {
		fields = append(fields, "execution_id", id)
	}

	return fields
}
