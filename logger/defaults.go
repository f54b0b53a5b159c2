package logger

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/rs/zerolog"
)

type DefaultLogger struct {
	component string
}

var Default = &DefaultLogger{}

var base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

var urlRegex = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*:\/\/[a-zA-Z0-9+%/.\-:_?&=#@+]+`)

// SetOutput redirects every logger to w. Used by main for JSON output and by tests.
func SetOutput(w io.Writer, pretty bool) {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	base = zerolog.New(w).With().Timestamp().Logger()
}

// Named returns a logger that tags every line with the given component.
func Named(component string) *DefaultLogger {
	return &DefaultLogger{component: component}
}

func cleanString(text string) string {
	return urlRegex.ReplaceAllString(text, "[redacted url]")
}

func safeLogf(format string, v ...any) string {
	safeString := fmt.Sprintf(format, v...)
	if os.Getenv("SAFE_LOGS") == "true" {
		return cleanString(safeString)
	}
	return safeString
}

func debugEnabled() bool {
	return os.Getenv("DEBUG") == "true"
}

func (l *DefaultLogger) event(e *zerolog.Event) *zerolog.Event {
	if l.component != "" {
		e = e.Str("component", l.component)
	}
	return e
}

func (l *DefaultLogger) Log(format string) {
	l.event(base.Info()).Msg(safeLogf("%s", format))
}

func (l *DefaultLogger) Logf(format string, v ...any) {
	l.event(base.Info()).Msg(safeLogf(format, v...))
}

func (l *DefaultLogger) Debug(format string) {
	if debugEnabled() {
		l.event(base.Debug()).Msg(safeLogf("%s", format))
	}
}

func (l *DefaultLogger) Debugf(format string, v ...any) {
	if debugEnabled() {
		l.event(base.Debug()).Msg(safeLogf(format, v...))
	}
}

func (l *DefaultLogger) Error(format string) {
	l.event(base.Error()).Msg(safeLogf("%s", format))
}

func (l *DefaultLogger) Errorf(format string, v ...any) {
	l.event(base.Error()).Msg(safeLogf(format, v...))
}

func (l *DefaultLogger) Warn(format string) {
	l.event(base.Warn()).Msg(safeLogf("%s", format))
}

func (l *DefaultLogger) Warnf(format string, v ...any) {
	l.event(base.Warn()).Msg(safeLogf(format, v...))
}

func (l *DefaultLogger) Fatal(format string) {
	l.event(base.Fatal()).Msg(safeLogf("%s", format))
}

func (l *DefaultLogger) Fatalf(format string, v ...any) {
	l.event(base.Fatal()).Msg(safeLogf(format, v...))
}
