package log

import (
	"io"

	"github.com/rs/zerolog"
)

// NewZerologWarnSink builds a warning sink backed by zerolog, suitable for
// errors.SetZerologWarnFunc. Warning types implementing
// zerolog.LogObjectMarshaler are emitted with their structured fields.
func NewZerologWarnSink(w io.Writer) func(warning error) {
	logger := zerolog.New(w).With().Timestamp().Logger()
	return func(warning error) {
		event := logger.Warn()
		if marshaler, ok := warning.(zerolog.LogObjectMarshaler); ok {
			event = event.Object("warning", marshaler)
		}
		event.Msg(warning.Error())
	}
}
