package main

import (
	"io"
	"log/slog"
	"strings"
)

// newLogger returns a JSON logger writing to w. The level can be changed at
// runtime through the returned LevelVar.
func newLogger(w io.Writer, rawLevel string) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	level.Set(parseLevel(rawLevel))

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler), level
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
