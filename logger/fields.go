package logger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field is a named value attached to a log entry. ValueJSON returns the value rendered as a
// JSON fragment; rendering is deferred until the entry is actually written.
type Field interface {
	Name() string
	ValueJSON() string
}

// field implements Field with a deferred render function.
type field struct {
	name   string
	render func() string
}

func (f field) Name() string {
	return f.name
}

func (f field) ValueJSON() string {
	return f.render()
}

func newField(name string, render func() string) Field {
	return field{name: name, render: render}
}

// renderJSON marshals v, substituting an error string when it can't be marshaled.
func renderJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("\"JSON Convert Failed : %s\"", err)
	}
	return string(b)
}

// renderList joins rendered items into a JSON array.
func renderList(count int, renderItem func(int) string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < count; i++ {
		if i != 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(renderItem(i))
	}
	sb.WriteByte(']')
	return sb.String()
}

func String(name string, value string) Field {
	return newField(name, func() string { return strconv.Quote(value) })
}

func Stringer(name string, value fmt.Stringer) Field {
	return newField(name, func() string { return strconv.Quote(value.String()) })
}

func Formatter(name string, format string, values ...interface{}) Field {
	return newField(name, func() string {
		return strconv.Quote(fmt.Sprintf(format, values...))
	})
}

// Marshaler renders a value through its own MarshalJSON.
func Marshaler(name string, value json.Marshaler) Field {
	return newField(name, func() string {
		b, err := value.MarshalJSON()
		if err != nil {
			return fmt.Sprintf("\"JSON Convert Failed : %s\"", err)
		}
		return string(b)
	})
}

// JSON renders any value with encoding/json.
func JSON(name string, value interface{}) Field {
	return newField(name, func() string { return renderJSON(value) })
}

func intField(name string, value int64) Field {
	return newField(name, func() string { return strconv.FormatInt(value, 10) })
}

func Int(name string, value int) Field     { return intField(name, int64(value)) }
func Int8(name string, value int8) Field   { return intField(name, int64(value)) }
func Int16(name string, value int16) Field { return intField(name, int64(value)) }
func Int32(name string, value int32) Field { return intField(name, int64(value)) }
func Int64(name string, value int64) Field { return intField(name, value) }

func uintField(name string, value uint64) Field {
	return newField(name, func() string { return strconv.FormatUint(value, 10) })
}

func Uint(name string, value uint) Field     { return uintField(name, uint64(value)) }
func Uint8(name string, value uint8) Field   { return uintField(name, uint64(value)) }
func Uint16(name string, value uint16) Field { return uintField(name, uint64(value)) }
func Uint32(name string, value uint32) Field { return uintField(name, uint64(value)) }
func Uint64(name string, value uint64) Field { return uintField(name, value) }

func Bool(name string, value bool) Field {
	return newField(name, func() string { return strconv.FormatBool(value) })
}

func floatField(name string, value float64) Field {
	return newField(name, func() string { return fmt.Sprintf("%f", value) })
}

func Float32(name string, value float32) Field { return floatField(name, float64(value)) }
func Float64(name string, value float64) Field { return floatField(name, value) }

func uintListField(name string, values []uint64) Field {
	return newField(name, func() string {
		return renderList(len(values), func(i int) string {
			return strconv.FormatUint(values[i], 10)
		})
	})
}

func Uints(name string, values []uint) Field {
	widened := make([]uint64, len(values))
	for i, v := range values {
		widened[i] = uint64(v)
	}
	return uintListField(name, widened)
}

func Uint8s(name string, values []uint8) Field {
	widened := make([]uint64, len(values))
	for i, v := range values {
		widened[i] = uint64(v)
	}
	return uintListField(name, widened)
}

func Uint16s(name string, values []uint16) Field {
	widened := make([]uint64, len(values))
	for i, v := range values {
		widened[i] = uint64(v)
	}
	return uintListField(name, widened)
}

func Uint32s(name string, values []uint32) Field {
	widened := make([]uint64, len(values))
	for i, v := range values {
		widened[i] = uint64(v)
	}
	return uintListField(name, widened)
}

func Uint64s(name string, values []uint64) Field {
	return uintListField(name, values)
}

func floatListField(name string, values []float64) Field {
	return newField(name, func() string {
		return renderList(len(values), func(i int) string {
			return fmt.Sprintf("%f", values[i])
		})
	})
}

func Float32s(name string, values []float32) Field {
	widened := make([]float64, len(values))
	for i, v := range values {
		widened[i] = float64(v)
	}
	return floatListField(name, widened)
}

func Float64s(name string, values []float64) Field {
	return floatListField(name, values)
}

func Strings(name string, values []string) Field {
	return newField(name, func() string {
		return renderList(len(values), func(i int) string {
			return strconv.Quote(values[i])
		})
	})
}

func Stringers(name string, values []fmt.Stringer) Field {
	return newField(name, func() string {
		return renderList(len(values), func(i int) string {
			return strconv.Quote(values[i].String())
		})
	})
}

func Marshalers(name string, values []json.Marshaler) Field {
	return newField(name, func() string {
		return renderList(len(values), func(i int) string {
			b, err := values[i].MarshalJSON()
			if err != nil {
				return fmt.Sprintf("\"JSON Convert Failed : %s\"", err)
			}
			return string(b)
		})
	})
}

func JSONs(name string, values []interface{}) Field {
	return newField(name, func() string {
		return renderList(len(values), func(i int) string {
			return renderJSON(values[i])
		})
	})
}

func Hex(name string, value []byte) Field {
	return newField(name, func() string {
		return strconv.Quote(hex.EncodeToString(value))
	})
}

func millisecondsField(name string, value float64) Field {
	return newField(name, func() string { return fmt.Sprintf("%06f", value) })
}

func MillisecondsFromNano(name string, value int64) Field {
	return millisecondsField(name, float64(value)/1e6)
}

func Milliseconds(name string, value float64) Field {
	return millisecondsField(name, value)
}

// Timestamp renders nanoseconds since the epoch as fractional seconds.
func Timestamp(name string, nanosecondsSinceEpoch int64) Field {
	return millisecondsField(name, float64(nanosecondsSinceEpoch)/1e9)
}
