package logging

import (
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// newJSONHandler writes one object per line with "ts" in UTC and durations as
// float seconds, matching the time_seconds column of the progress log.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	})
}

func replaceJSONAttr(_ []string, attr slog.Attr) slog.Attr {
	v := attr.Value
	switch {
	case attr.Key == slog.TimeKey && v.Kind() == slog.KindTime:
		return slog.String("ts", v.Time().UTC().Format(time.RFC3339Nano))
	case attr.Key == slog.LevelKey:
		return slog.String(slog.LevelKey, strings.ToLower(v.String()))
	case attr.Key == slog.SourceKey:
		if src, ok := v.Any().(*slog.Source); ok && src != nil {
			return slog.String(slog.SourceKey, filepath.Base(src.File)+":"+strconv.Itoa(src.Line))
		}
	case v.Kind() == slog.KindDuration:
		return slog.Float64(attr.Key, v.Duration().Seconds())
	}
	return attr
}
