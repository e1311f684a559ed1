package logger

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Level is the severity of a log entry, ordered from most to least verbose.
type Level int

const (
	LevelDebug   Level = -2
	LevelVerbose Level = -1
	LevelInfo    Level = 0
	LevelWarn    Level = 1
	LevelError   Level = 2
	LevelFatal   Level = 3 // Calls exit
	LevelPanic   Level = 4 // Calls panic
)

// Log entry formatting: which prefix fields to include.
const (
	IncludeDate      = 0x01 // date in the local time zone: 2018/01/01
	IncludeTime      = 0x02 // time in the local time zone: 06:54:32
	IncludeMicro     = 0x04 // microseconds .123123
	IncludeFile      = 0x08 // file name and line number
	IncludeSystem    = 0x10 // system name
	IncludeLevel     = 0x20 // level of log entry
	IncludeTimeStamp = 0x40 // unix timestamp (seconds.microseconds)
)

// loggerkey namespaces the context keys this package attaches values under.
type loggerkey int

const (
	configKey    loggerkey = 1
	subSystemKey loggerkey = 2
	traceKey     loggerkey = 3
	fieldsKey    loggerkey = 4
)

// DefaultConfig is used when a context carries no Config at all.
var DefaultConfig = *NewProductionConfig()

// emptyConfig is the sentinel installed by ContextWithNoLogger; dispatch checks identity against
// it rather than comparing contents, so every ContextWithNoLogger call must share this instance.
var emptyConfig Config

// ContextWithLogConfig returns a context with the logging config attached.
func ContextWithLogConfig(ctx context.Context, config *Config) context.Context {
	return context.WithValue(ctx, configKey, config)
}

// ContextWithNoLogger returns a context that discards everything logged through it.
func ContextWithNoLogger(ctx context.Context) context.Context {
	return context.WithValue(ctx, configKey, &emptyConfig)
}

// ContextWithLogSubSystem returns a context tagged with the named subsystem.
func ContextWithLogSubSystem(ctx context.Context, subsystem string) context.Context {
	return context.WithValue(ctx, subSystemKey, subsystem)
}

// ContextWithOutLogSubSystem clears a subsystem tag, used when a context is handed back from a
// subsystem to its parent.
func ContextWithOutLogSubSystem(ctx context.Context) context.Context {
	return context.WithValue(ctx, subSystemKey, nil)
}

// ContextWithLogTrace attaches a trace id that gets appended as a field to every entry logged
// through the returned context.
func ContextWithLogTrace(ctx context.Context, trace string) context.Context {
	return context.WithValue(ctx, traceKey, trace)
}

// ContextWithLogger is a convenience wrapper combining NewConfig and ContextWithLogConfig.
func ContextWithLogger(ctx context.Context, isDevelopment, isText bool, filePath string) context.Context {
	return ContextWithLogConfig(ctx, NewConfig(isDevelopment, isText, filePath))
}

// ContextWithLogFields attaches fields that get appended to every entry logged through the
// returned context, in addition to whatever fields each call site provides.
func ContextWithLogFields(ctx context.Context, fields ...Field) context.Context {
	merged := append(append([]Field{}, contextFields(ctx)...), fields...)
	return context.WithValue(ctx, fieldsKey, merged)
}

func contextFields(ctx context.Context) []Field {
	value := ctx.Value(fieldsKey)
	if value == nil {
		return nil
	}
	fields, _ := value.([]Field)
	return fields
}

func getTrace(ctx context.Context) string {
	value := ctx.Value(traceKey)
	if value == nil {
		return ""
	}
	trace, _ := value.(string)
	return trace
}

// Log adds a level entry to the log.
func Log(ctx context.Context, level Level, format string, values ...interface{}) error {
	return LogDepth(ctx, level, 1, format, values...)
}

// Debug adds a debug level entry to the log.
func Debug(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelDebug, 1, format, values...)
}

// Verbose adds a verbose level entry to the log.
func Verbose(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelVerbose, 1, format, values...)
}

// Info adds an info level entry to the log.
func Info(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelInfo, 1, format, values...)
}

// Warn adds a warn level entry to the log.
func Warn(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelWarn, 1, format, values...)
}

// Error adds an error level entry to the log.
func Error(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelError, 1, format, values...)
}

// Fatal adds a fatal level entry to the log and then calls os.Exit(1).
func Fatal(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelFatal, 1, format, values...)
}

// Panic adds a panic level entry to the log and then calls panic().
func Panic(ctx context.Context, format string, values ...interface{}) error {
	return LogDepth(ctx, LevelPanic, 1, format, values...)
}

// GetCaller resolves "file:line" for the stack frame skip levels above its own caller. Useful for
// capturing a call site up front, to attribute a log entry written later from another goroutine
// (where a stack-depth lookup at write time would resolve to the wrong frame).
func GetCaller(skip int) string {
	return resolveCaller(skip + 1)
}

// LogDepth is like Log, but the number of stack levels above this call to attribute as the caller
// can be specified, for wrapping functions that themselves call LogDepth on a caller's behalf.
func LogDepth(ctx context.Context, level Level, depth int, format string, values ...interface{}) error {
	err := dispatch(ctx, level, func(sc *SystemConfig, fields []Field) error {
		// +3 accounts for the closure, dispatch, and LogDepth frames between writeEntry's own
		// runtime.Caller lookup and LogDepth's caller.
		return sc.writeEntry(level, depth+3, fields, format, values...)
	})

	switch level {
	case LevelFatal:
		os.Exit(1)
	case LevelPanic:
		panic(fmt.Sprintf(format, values...))
	}
	return err
}

// LogWithCaller is like LogDepth, but attributes the entry to a "file:line" string captured
// earlier with GetCaller rather than the live call stack.
func LogWithCaller(ctx context.Context, level Level, caller string, fields []Field, format string,
	values ...interface{}) error {

	return dispatch(ctx, level, func(sc *SystemConfig, extra []Field) error {
		return sc.writeEntryWithCaller(level, caller, append(fields, extra...), format, values...)
	})
}

// LogDepthWithFields is like LogDepth, but attaches fields in addition to whatever the context
// carries.
func LogDepthWithFields(ctx context.Context, level Level, depth int, fields []Field, format string,
	values ...interface{}) error {

	return dispatch(ctx, level, func(sc *SystemConfig, extra []Field) error {
		return sc.writeEntry(level, depth+3, append(fields, extra...), format, values...)
	})
}

// InfoWithFields adds an info level entry to the log, with the given fields attached.
func InfoWithFields(ctx context.Context, fields []Field, format string, values ...interface{}) error {
	return LogDepthWithFields(ctx, LevelInfo, 1, fields, format, values...)
}

// dispatch resolves the Config attached to ctx and writes one entry to the main log, and to the
// current subsystem's log if one is set and configured to also forward to main.
func dispatch(ctx context.Context, level Level, write func(sc *SystemConfig, fields []Field) error) error {
	configValue := ctx.Value(configKey)
	if configValue == nil {
		configValue = &DefaultConfig
	}

	config, ok := configValue.(*Config)
	if !ok {
		return errors.New("invalid config type")
	}
	if config == &emptyConfig {
		return nil
	}

	var fields []Field
	if trace := getTrace(ctx); trace != "" {
		fields = append(fields, String("trace", trace))
	}
	fields = append(fields, contextFields(ctx)...)

	config.mutex.Lock()
	subsystem, hasSubsystem := "", false
	if subsystemValue := ctx.Value(subSystemKey); subsystemValue != nil {
		subsystem, hasSubsystem = subsystemValue.(string)
		if !hasSubsystem {
			config.mutex.Unlock()
			return errors.New("invalid subsystem type")
		}
	}
	subConfig, hasSubConfig := config.SubSystems[subsystem]
	forwardToMain, _ := config.IncludedSubSystems[subsystem]
	config.mutex.Unlock()

	if hasSubsystem {
		if hasSubConfig {
			if err := write(subConfig, fields); err != nil {
				return err
			}
		}
		if !forwardToMain {
			return nil
		}
	}

	return write(config.Main, fields)
}
