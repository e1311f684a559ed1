package logger

import (
	"context"
	"fmt"
)

// Logger is compatible with the standard library's log.Logger interface. Configure a context with
// this package's setup functions, wrap it with NewLoggerObject, and pass the result anywhere a
// Logger is expected.
type Logger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})

	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})
	Fatalln(v ...interface{})

	Panic(v ...interface{})
	Panicf(format string, v ...interface{})
	Panicln(v ...interface{})
}

// LoggerObject adapts a context carrying log configuration to the standard library Logger shape.
type LoggerObject struct {
	ctx context.Context
}

func NewLoggerObject(ctx context.Context) *LoggerObject {
	return &LoggerObject{ctx: ctx}
}

func (l *LoggerObject) Print(v ...interface{}) {
	LogDepth(l.ctx, LevelInfo, 1, fmt.Sprint(v...))
}

func (l *LoggerObject) Printf(format string, v ...interface{}) {
	LogDepth(l.ctx, LevelInfo, 1, format, v...)
}

func (l *LoggerObject) Println(v ...interface{}) {
	LogDepth(l.ctx, LevelInfo, 1, fmt.Sprint(v...))
}

func (l *LoggerObject) Fatal(v ...interface{}) {
	LogDepth(l.ctx, LevelFatal, 1, fmt.Sprint(v...))
}

func (l *LoggerObject) Fatalf(format string, v ...interface{}) {
	LogDepth(l.ctx, LevelFatal, 1, format, v...)
}

func (l *LoggerObject) Fatalln(v ...interface{}) {
	LogDepth(l.ctx, LevelFatal, 1, fmt.Sprint(v...))
}

func (l *LoggerObject) Panic(v ...interface{}) {
	LogDepth(l.ctx, LevelPanic, 1, fmt.Sprint(v...))
}

func (l *LoggerObject) Panicf(format string, v ...interface{}) {
	LogDepth(l.ctx, LevelPanic, 1, format, v...)
}

func (l *LoggerObject) Panicln(v ...interface{}) {
	LogDepth(l.ctx, LevelPanic, 1, fmt.Sprint(v...))
}

// AddFields attaches fields that will be included with every entry logged through this object
// from this point on.
func (l *LoggerObject) AddFields(fields []Field) {
	l.ctx = ContextWithLogFields(l.ctx, fields...)
}
