package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps DEBUG/INFO/WARN/ERROR (any case) to a Level. Unknown values
// fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

type Logger struct {
	debug     *log.Logger
	info      *log.Logger
	warn      *log.Logger
	error     *log.Logger
	level     Level
	component string
}

const flags = log.Ldate | log.Ltime | log.Lshortfile

func New() *Logger {
	return &Logger{
		debug: log.New(os.Stdout, "DEBUG: ", flags),
		info:  log.New(os.Stdout, "INFO: ", flags),
		warn:  log.New(os.Stderr, "WARN: ", flags),
		error: log.New(os.Stderr, "ERROR: ", flags),
		level: LevelInfo,
	}
}

func NewWithWriter(writer io.Writer) *Logger {
	return &Logger{
		debug: log.New(writer, "DEBUG: ", flags),
		info:  log.New(writer, "INFO: ", flags),
		warn:  log.New(writer, "WARN: ", flags),
		error: log.New(writer, "ERROR: ", flags),
		level: LevelDebug,
	}
}

// SetLevel drops every line below level. It affects children created
// afterwards with With.
func (l *Logger) SetLevel(level Level) *Logger {
	l.level = level
	return l
}

// With returns a child logger that prefixes each line with [component].
func (l *Logger) With(component string) *Logger {
	child := *l
	if l.component != "" {
		component = l.component + "." + component
	}
	child.component = component
	return &child
}

func (l *Logger) output(target *log.Logger, level Level, msg string) {
	if level < l.level {
		return
	}
	if l.component != "" {
		msg = "[" + l.component + "] " + msg
	}
	_ = target.Output(3, msg)
}

func (l *Logger) Debug(v ...interface{}) {
	l.output(l.debug, LevelDebug, fmt.Sprintln(v...))
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.output(l.debug, LevelDebug, fmt.Sprintf(format, v...))
}

func (l *Logger) Info(v ...interface{}) {
	l.output(l.info, LevelInfo, fmt.Sprintln(v...))
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.output(l.info, LevelInfo, fmt.Sprintf(format, v...))
}

func (l *Logger) Warn(v ...interface{}) {
	l.output(l.warn, LevelWarn, fmt.Sprintln(v...))
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.output(l.warn, LevelWarn, fmt.Sprintf(format, v...))
}

func (l *Logger) Error(v ...interface{}) {
	l.output(l.error, LevelError, fmt.Sprintln(v...))
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.output(l.error, LevelError, fmt.Sprintf(format, v...))
}
