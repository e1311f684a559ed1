package logger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMainAndSubSystemRouting(t *testing.T) {
	const shown = "shown-subsystem"
	const hidden = "hidden-subsystem"

	logConfig := NewConfig(true, false, "")
	logConfig.EnableSubSystem(shown)

	ctx := ContextWithLogConfig(context.Background(), logConfig)

	Log(ctx, LevelInfo, "first main entry")
	Log(ctx, LevelInfo, "first main entry with value : %d", 101)

	shownCtx := ContextWithLogSubSystem(ctx, shown)
	Log(shownCtx, LevelInfo, "forwarded subsystem entry")

	hiddenCtx := ContextWithLogSubSystem(ctx, hidden)
	Log(hiddenCtx, LevelInfo, "unforwarded subsystem entry, should not reach main")

	Log(ctx, LevelInfo, "second main entry")

	for _, trace := range []string{"trace-1", "trace-2"} {
		tracedCtx := ContextWithLogTrace(ctx, trace)
		Log(tracedCtx, LevelInfo, "entry carrying %s", trace)
	}
}

func TestSubSystemForwardsAndCompatibilityLogger(t *testing.T) {
	logConfig := NewConfig(false, false, "")
	logConfig.EnableSubSystem("SpyNode")

	ctx := ContextWithLogConfig(context.Background(), logConfig)
	spyCtx := ContextWithLogSubSystem(ctx, "SpyNode")
	plainCtx := ContextWithOutLogSubSystem(ctx)

	Log(ctx, LevelInfo, "without spynode")
	Log(spyCtx, LevelInfo, "with spynode")
	Log(plainCtx, LevelInfo, "without spynode again")

	NewLoggerObject(ctx).Printf("compatibility logger print")
}

func TestUnconfiguredSubSystemDoesNotForward(t *testing.T) {
	logConfig := NewConfig(false, false, "")

	ctx := ContextWithLogConfig(context.Background(), logConfig)
	spyCtx := ContextWithLogSubSystem(ctx, "SpyNode")
	plainCtx := ContextWithOutLogSubSystem(ctx)

	Log(ctx, LevelInfo, "without spynode")
	Log(spyCtx, LevelInfo, "with spynode, not enabled for forwarding")
	Log(plainCtx, LevelInfo, "without spynode again")
}

func TestFieldTypesAndEscaping(t *testing.T) {
	ctx := ContextWithLogger(context.Background(), false, false, "")

	scalarFields := []Field{
		String("string", "value"),
		Int("integer", 10),
		Uint("unsigned int", uint(20)),
		Float32("float32", 1.0),
		Float64("float64", 2.0),
	}
	InfoWithFields(ctx, scalarFields, "scalar fields")

	escapeCases := map[string][]Field{
		"quote and backspace": {
			String("with quote", `"should escape quote`),
			String("with backspace", "\b should escape backspace"),
		},
		"newline and tab": {
			String("with newline", "\n\tshould escape newline and tab"),
		},
		"backslash": {
			String("with backslash", `\ should escape backslash`),
		},
	}
	for name, fields := range escapeCases {
		InfoWithFields(ctx, fields, name)
	}

	InfoWithFields(ctx, []Field{Hex("hex", []byte{1, 2, 3})}, "hex field")
	InfoWithFields(ctx, []Field{Uint32s("uint list", []uint32{1, 2, 3})}, "uint32 slice field")
	InfoWithFields(ctx, []Field{Float32s("float list", []float32{1.234, 2.948463, 3.1})},
		"float32 slice field")

	payload := struct {
		Field1 string `json:"field_1"`
		Field2 int    `json:"field_2"`
	}{
		Field1: "value 1",
		Field2: 2,
	}
	InfoWithFields(ctx, []Field{JSON("json_struct", &payload)}, "json field")
}

func TestDuplicateFieldNameKeepsLatest(t *testing.T) {
	ctx := ContextWithLogger(context.Background(), false, false, "")
	ctx = ContextWithLogFields(ctx, String("duplicate", "original"))

	InfoWithFields(ctx, []Field{String("duplicate", "should not show")}, "message")
}

func TestWaitingWarningFiresUntilCancelled(t *testing.T) {
	ctx := ContextWithLogger(context.Background(), false, false, "")

	warning := NewWaitingWarning(ctx, 100*time.Millisecond, "waiting for test condition")
	time.Sleep(350 * time.Millisecond)
	warning.Cancel()
	warning.Cancel() // must be safe to call more than once
}

func BenchmarkContextWithLogTrace(b *testing.B) {
	ctx := ContextWithLogConfig(context.Background(), NewConfig(false, false, ""))

	for i := 0; i < b.N; i++ {
		ContextWithLogTrace(ctx, "trace")
	}
}

func BenchmarkContextWithOutLogSubSystem(b *testing.B) {
	ctx := ContextWithLogConfig(context.Background(), NewConfig(false, false, ""))

	for i := 0; i < b.N; i++ {
		ContextWithOutLogSubSystem(ctx)
	}
}

func newBenchFileContext(b *testing.B) (context.Context, string) {
	if err := os.Mkdir("./tmp", 0755); err != nil && !os.IsExist(err) {
		b.Fatalf("create tmp dir: %s", err)
	}

	logFileName := "./tmp/bench_" + uuid.New().String() + ".log"
	ctx := ContextWithLogConfig(context.Background(), NewConfig(false, false, logFileName))
	return ctx, logFileName
}

func BenchmarkFileNoFields(b *testing.B) {
	ctx, logFileName := newBenchFileContext(b)
	defer os.Remove(logFileName)

	for i := 0; i < b.N; i++ {
		Info(ctx, "simple log entry %d", i)
	}
}

func BenchmarkFileWithFields(b *testing.B) {
	ctx, logFileName := newBenchFileContext(b)
	defer os.Remove(logFileName)

	for i := 0; i < b.N; i++ {
		InfoWithFields(ctx, []Field{
			String("title", "string value"),
			Int("index", i),
			Float32("float", 123.556),
		}, "log entry with fields")
	}
}

func BenchmarkDummyNoFields(b *testing.B) {
	ctx := ContextWithLogConfig(context.Background(), NewConfig(false, false, "dummy"))

	for i := 0; i < b.N; i++ {
		Info(ctx, "simple log entry %d", i)
	}
}

func BenchmarkDummyWithFields(b *testing.B) {
	ctx := ContextWithLogConfig(context.Background(), NewConfig(false, false, "dummy"))

	for i := 0; i < b.N; i++ {
		InfoWithFields(ctx, []Field{
			String("title", "string value"),
			Int("index", i),
			Float32("float", 123.556),
		}, "log entry with fields")
	}
}
