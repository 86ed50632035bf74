package core

import (
	"io"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog.Logger.
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

// NewZerologLoggerTo creates a zerolog-backed Logger writing to w with
// timestamps enabled.
func NewZerologLoggerTo(w io.Writer) *ZerologLogger {
	return &ZerologLogger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

func (l *ZerologLogger) Debug(msg string, fields ...Field) {
	l.emit(l.logger.Debug(), msg, fields)
}

func (l *ZerologLogger) Info(msg string, fields ...Field) {
	l.emit(l.logger.Info(), msg, fields)
}

func (l *ZerologLogger) Warn(msg string, fields ...Field) {
	l.emit(l.logger.Warn(), msg, fields)
}

func (l *ZerologLogger) Error(msg string, fields ...Field) {
	l.emit(l.logger.Error(), msg, fields)
}

func (l *ZerologLogger) emit(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}
