package logging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StartQuery attaches a fresh query ID and logger to ctx. The returned done
// function logs the elapsed time and any error of the query.
func StartQuery(ctx context.Context, logger *Logger, operation string) (context.Context, func(err error)) {
	start := time.Now()

	queryID := QueryID(ctx)
	if queryID == "" {
		queryID = uuid.New().String()
		ctx = WithQueryID(ctx, queryID)
	}
	if logger != nil {
		ctx = WithLogger(ctx, logger)
	}

	return ctx, func(err error) {
		l := FromContext(ctx)
		if err != nil {
			l.Error("Query failed", "operation", operation, "duration", time.Since(start), "error", err)
			return
		}
		l.Debug("Query finished", "operation", operation, "duration", time.Since(start))
	}
}

// WithNewExecution derives a context carrying a fresh execution ID under the
// same query. Fan-out tasks receive such a context explicitly.
func WithNewExecution(ctx context.Context) context.Context {
	return WithExecutionID(ctx, uuid.New().String())
}
