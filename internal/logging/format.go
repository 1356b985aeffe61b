package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const consoleTimeLayout = "2006-01-02 15:04:05.000"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Local().Format(consoleTimeLayout)
}

// attrString renders v without quoting, for values embedded in the line
// prefix such as the component name and frame index.
func attrString(v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindString {
		return v.String()
	}
	return plainValue(v)
}

// formatValue renders v for the key=value tail of a console line.
func formatValue(v slog.Value) string {
	s := plainValue(v.Resolve())
	if v.Kind() == slog.KindString || v.Kind() == slog.KindAny {
		return quoteIfNeeded(s)
	}
	return s
}

func plainValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		// Frame times span milliseconds to hours.
		d := v.Duration()
		if d < time.Second {
			return d.Round(time.Millisecond).String()
		}
		return strconv.FormatFloat(d.Seconds(), 'f', 3, 64) + "s"
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case []string:
			return strings.Join(x, " ")
		default:
			return fmt.Sprint(x)
		}
	default:
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
