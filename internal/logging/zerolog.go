package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface. It is the
// implementation used by the service binaries; StdoutLogger stays around for
// quick development wiring.
type ZerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger builds a ZerologLogger writing JSON lines to w.
// component is attached as a persistent field when non-empty.
func NewZerologLogger(w io.Writer, component string) *ZerologLogger {
	zl := zerolog.New(w).With().Timestamp().Logger()
	if component != "" {
		zl = zl.With().Str("component", component).Logger()
	}
	return &ZerologLogger{zl: zl}
}

func applyFields(ev *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	return ev
}

func (z *ZerologLogger) Debug(msg string, fields ...Field) {
	applyFields(z.zl.Debug(), fields).Msg(msg)
}

func (z *ZerologLogger) Info(msg string, fields ...Field) {
	applyFields(z.zl.Info(), fields).Msg(msg)
}

func (z *ZerologLogger) Warn(msg string, fields ...Field) {
	applyFields(z.zl.Warn(), fields).Msg(msg)
}

func (z *ZerologLogger) Error(msg string, fields ...Field) {
	applyFields(z.zl.Error(), fields).Msg(msg)
}

func (z *ZerologLogger) With(fields ...Field) Logger {
	ctx := z.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &ZerologLogger{zl: ctx.Logger()}
}
