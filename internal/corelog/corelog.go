// Package corelog provides the endpoint core's shared trace logger,
// generalized from GiterLab-go-coap's package-level debug.go: the same
// always-on *logs.BeeLogger plus an enable switch, now one instance per
// endpoint instead of one global.
package corelog

import "github.com/astaxie/beego/logs"

// Logger wraps a *logs.BeeLogger with an independent enable switch, so an
// endpoint can be constructed with tracing on or off without disturbing
// any other endpoint in the same process.
type Logger struct {
	log     *logs.BeeLogger
	enabled bool
}

// New returns a Logger writing to the console at "debug" level, tracing
// disabled, matching the teacher's default logger configuration.
func New() *Logger {
	l := logs.NewLogger(10000)
	l.SetLogger("console", `{"level":7}`)
	l.EnableFuncCallDepth(true)
	l.SetLogFuncCallDepth(3)
	return &Logger{log: l}
}

// SetEnabled turns tracing on or off.
func (l *Logger) SetEnabled(enable bool) {
	l.enabled = enable
}

// Enabled reports whether tracing is currently on.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// SetBackend replaces the underlying *logs.BeeLogger, mirroring the
// teacher's SetLogger(l) — a nil backend is ignored.
func (l *Logger) SetBackend(backend *logs.BeeLogger) {
	if backend != nil {
		l.log = backend
	}
}

// Tracef logs at debug level when tracing is enabled.
func (l *Logger) Tracef(format string, args ...interface{}) {
	if l.enabled {
		l.log.Debug(format, args...)
	}
}

// Errorf always logs at error level, tracing switch notwithstanding —
// errors are worth keeping even when verbose tracing is off.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log.Error(format, args...)
}

// Warnf always logs at warning level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log.Warning(format, args...)
}
