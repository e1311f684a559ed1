package logger

import (
	"context"
	"time"
)

// Elapsed logs the duration since start, in milliseconds. Call with defer and time.Now() as
// start to time a function body.
func Elapsed(ctx context.Context, start time.Time, format string, values ...interface{}) {
	elapsedMS := float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)
	values = append(values, elapsedMS)
	LogDepth(ctx, LevelInfo, 1, format+" : %0.3f ms", values...)
}
