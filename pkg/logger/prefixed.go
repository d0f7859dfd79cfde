package logger

import "log/slog"

const componentKey = "component"

// PrefixedLogger tags every record with the component that emitted it: the
// message reads "[monitor.modlog] ..." and a "component" attribute carries
// the same path for the JSON sink. Wrapping a PrefixedLogger extends the path
// instead of stacking brackets.
type PrefixedLogger struct {
	inner     Logger
	component string
}

func NewPrefixedLogger(inner Logger, prefix string) *PrefixedLogger {
	if p, ok := inner.(*PrefixedLogger); ok {
		return &PrefixedLogger{inner: p.inner, component: p.component + "." + prefix}
	}
	return &PrefixedLogger{inner: inner, component: prefix}
}

// Component returns the dotted component path.
func (p *PrefixedLogger) Component() string {
	return p.component
}

func (p *PrefixedLogger) prefixed(msg string) string {
	return "[" + p.component + "] " + msg
}

func (p *PrefixedLogger) with(args []any) []any {
	return append([]any{slog.String(componentKey, p.component)}, args...)
}

func (p *PrefixedLogger) SetLogLevel(levelStr string) {
	p.inner.SetLogLevel(levelStr)
}

func (p *PrefixedLogger) GetLogLevel() string {
	return p.inner.GetLogLevel()
}

func (p *PrefixedLogger) Trace(msg string, args ...any) {
	p.inner.Trace(p.prefixed(msg), p.with(args)...)
}

func (p *PrefixedLogger) Debug(msg string, args ...any) {
	p.inner.Debug(p.prefixed(msg), p.with(args)...)
}

func (p *PrefixedLogger) Info(msg string, args ...any) {
	p.inner.Info(p.prefixed(msg), p.with(args)...)
}

func (p *PrefixedLogger) Warn(msg string, args ...any) {
	p.inner.Warn(p.prefixed(msg), p.with(args)...)
}

func (p *PrefixedLogger) Error(msg string, err error, args ...any) {
	p.inner.Error(p.prefixed(msg), err, p.with(args)...)
}

func (p *PrefixedLogger) Fatal(msg string, err error, args ...any) {
	p.inner.Fatal(p.prefixed(msg), err, p.with(args)...)
}
