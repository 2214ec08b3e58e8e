package influxqb

import (
	"fmt"
	"math"
	"time"

	"github.com/influxqb/influxqb/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// maxSerialDays keeps the whole-day count of a serial date inside int range
// on 32-bit platforms (roughly ±270k years).
const maxSerialDays = 1e8

type timeValueKind int

const (
	timeNone timeValueKind = iota
	timeRaw
	timeInstant
)

// timeValue is the resolved form of a time boundary: nothing, an opaque
// literal emitted as-is, or an instant emitted as epoch milliseconds.
type timeValue struct {
	kind   timeValueKind
	raw    string
	millis int64
}

func (t timeValue) render(op string) string {
	switch t.kind {
	case timeRaw:
		return fmt.Sprintf("time %s '%s'", op, t.raw)
	case timeInstant:
		return fmt.Sprintf("time %s %dms", op, t.millis)
	default:
		return ""
	}
}

// resolveTimeValue maps a user-supplied boundary value onto a timeValue.
// nil and the empty string clear the boundary. Strings are opaque literals
// passed through unreformatted. time.Time values become UTC epoch
// milliseconds. Numeric values are serial dates, days since 1970-01-01,
// which carry no timezone of their own; they resolve against the local
// timezone and log a warning that the assumption was made.
func resolveTimeValue(value any, logger *zap.Logger) (timeValue, error) {
	switch v := value.(type) {
	case nil:
		return timeValue{kind: timeNone}, nil
	case string:
		if v == "" {
			return timeValue{kind: timeNone}, nil
		}
		return timeValue{kind: timeRaw, raw: v}, nil
	case time.Time:
		return timeValue{kind: timeInstant, millis: v.UTC().UnixMilli()}, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		days := cast.ToFloat64(v)
		if math.IsNaN(days) || math.Abs(days) > maxSerialDays {
			return timeValue{}, errors.New(errors.UnsupportedTimeValue, "serial date out of range: %v", v)
		}
		resolved := serialDate(days, time.Local)
		logger.Warn("serial date resolved with assumed local timezone",
			zap.Float64("days", days),
			zap.String("timezone", time.Local.String()),
			zap.Time("resolved", resolved),
		)
		return timeValue{kind: timeInstant, millis: resolved.UTC().UnixMilli()}, nil
	default:
		return timeValue{}, errors.New(errors.UnsupportedTimeValue, "unsupported time value of type %T", value)
	}
}

// serialDate resolves a day count since 1970-01-01 to midnight plus any
// fractional day in the given location
func serialDate(days float64, loc *time.Location) time.Time {
	whole := math.Floor(days)
	frac := days - whole
	t := time.Date(1970, time.January, 1, 0, 0, 0, 0, loc).AddDate(0, 0, int(whole))
	if frac != 0 {
		t = t.Add(time.Duration(frac * float64(24*time.Hour)))
	}
	return t
}
