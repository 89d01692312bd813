package telemetry

import (
	"fmt"
	"log/slog"
)

// SlogAPI implements API on top of a slog.Logger. The zero value logs to
// slog.Default().
type SlogAPI struct {
	Logger *slog.Logger
}

func NewSlogAPI(logger *slog.Logger) SlogAPI {
	return SlogAPI{Logger: logger}
}

func (s SlogAPI) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (SlogAPI) formatParams(out *[]any, params []any) {
	for i, p := range params {
		*out = append(*out, fmt.Sprintf("params.%d", i), p)
	}
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	pairs := []any{"id", id}
	s.formatParams(&pairs, params)
	s.logger().Error("broken component", pairs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	pairs := []any{"id", id}
	s.formatParams(&pairs, params)
	s.logger().Warn("warning", pairs...)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	pairs := []any{}
	s.formatParams(&pairs, params)
	s.logger().Debug(message, pairs...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	s.logger().Info("count", "id", id, "n", count)
}
