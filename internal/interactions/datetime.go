package interactions

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnsupportedDatetime = errors.New("unsupported datetime type")
	ErrUnparseableDatetime = errors.New("unparseable datetime")
	ErrBadTimeDelta        = errors.New("bad time delta")
)

// Epoch values at or above this are taken to be milliseconds. 1e11 seconds is
// roughly the year 5138, 1e11 milliseconds is early 1973.
const millisThreshold = 1e11

var layouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// ParseDatetime converts the encodings found in interaction corpora to a UTC time.
func ParseDatetime(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d.UTC(), nil
	case int:
		return fromEpoch(float64(d)), nil
	case int64:
		return fromEpoch(float64(d)), nil
	case float64:
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return time.Time{}, fmt.Errorf("%w: %v", ErrUnparseableDatetime, d)
		}
		return fromEpoch(d), nil
	case json.Number:
		f, err := d.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDatetime, d)
		}
		return fromEpoch(f), nil
	case string:
		s := strings.TrimSpace(d)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(f), nil
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDatetime, d)
	default:
		return time.Time{}, fmt.Errorf("%w: %T", ErrUnsupportedDatetime, v)
	}
}

func fromEpoch(f float64) time.Time {
	if math.Abs(f) >= millisThreshold {
		return time.UnixMilli(int64(f)).UTC()
	}
	whole, frac := math.Modf(f)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

// Timestamp returns t as fractional epoch seconds.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// ParseTimeDelta parses "<n>-<unit>", e.g. "2-hours" or "10-seconds".
func ParseTimeDelta(s string) (time.Duration, error) {
	num, unit, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeDelta, s)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimeDelta, s)
	}
	var base time.Duration
	switch strings.TrimSuffix(strings.ToLower(unit), "s") {
	case "second":
		base = time.Second
	case "minute":
		base = time.Minute
	case "hour":
		base = time.Hour
	case "day":
		base = 24 * time.Hour
	case "week":
		base = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("%w: unknown unit in %q", ErrBadTimeDelta, s)
	}
	return time.Duration(n * float64(base)), nil
}
