package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// LogFormatPlain is a format for human readable, uncolored text.
	LogFormatPlain = "plain"
	// LogFormatText is an alias of LogFormatPlain.
	LogFormatText = "text"
	// LogFormatJSON is a format for json output.
	LogFormatJSON = "json"

	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelError = "error"
)

var _ Logger = (*defaultLogger)(nil)

type defaultLogger struct {
	zerolog.Logger
}

// NewDefaultLogger returns a Logger writing to stderr in the given format
// and at the given minimum level.
func NewDefaultLogger(format, level string) (Logger, error) {
	return NewLogger(format, level, os.Stderr)
}

// MustNewDefaultLogger is NewDefaultLogger that panics on a bad format or
// level.
func MustNewDefaultLogger(format, level string) Logger {
	logger, err := NewDefaultLogger(format, level)
	if err != nil {
		panic(err)
	}
	return logger
}

// NewLogger returns a Logger writing to w.
func NewLogger(format, level string, w io.Writer) (Logger, error) {
	var logWriter io.Writer
	switch strings.ToLower(format) {
	case LogFormatPlain, LogFormatText:
		logWriter = zerolog.ConsoleWriter{
			Out:        w,
			NoColor:    true,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					return strings.ToUpper(ll)
				}
				return "????"
			},
		}

	case LogFormatJSON:
		logWriter = w

	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}

	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level (%s): %w", level, err)
	}

	return &defaultLogger{
		Logger: zerolog.New(NewSyncWriter(logWriter)).Level(logLevel).With().Timestamp().Logger(),
	}, nil
}

// OverrideWithNewLogger replaces an existing logger's internal with
// a new logger, and makes it possible to reconfigure an existing
// logger that has already been propagated to callers.
func OverrideWithNewLogger(logger Logger, format, level string) error {
	ol, ok := logger.(*defaultLogger)
	if !ok {
		return fmt.Errorf("logger %T cannot be overridden", logger)
	}

	newLogger, err := NewDefaultLogger(format, level)
	if err != nil {
		return err
	}
	nl, ok := newLogger.(*defaultLogger)
	if !ok {
		return fmt.Errorf("logger %T cannot be overridden by %T", logger, newLogger)
	}

	ol.Logger = nl.Logger
	return nil
}

func (l defaultLogger) Debug(msg string, keyVals ...interface{}) {
	l.Logger.Debug().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l defaultLogger) Info(msg string, keyVals ...interface{}) {
	l.Logger.Info().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l defaultLogger) Error(msg string, keyVals ...interface{}) {
	l.Logger.Error().Fields(getLogFields(keyVals...)).Msg(msg)
}

func (l defaultLogger) With(keyVals ...interface{}) Logger {
	return &defaultLogger{
		Logger: l.Logger.With().Fields(getLogFields(keyVals...)).Logger(),
	}
}

// getLogFields turns alternating keys and values into a field map. An odd
// trailing key is kept with a nil value.
func getLogFields(keyVals ...interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, (len(keyVals)+1)/2)
	for i := 0; i < len(keyVals); i += 2 {
		var val interface{}
		if i+1 < len(keyVals) {
			val = keyVals[i+1]
		}
		switch v := val.(type) {
		case fmt.Stringer:
			val = v.String()
		case error:
			val = v.Error()
		}
		fields[fmt.Sprint(keyVals[i])] = val
	}
	return fields
}
