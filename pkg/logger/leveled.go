package logger

import "fmt"

// LeveledAdapter lets libraries that accept a key/value leveled logger
// (go-retryablehttp) write through a Logger.
type LeveledAdapter struct {
	log Logger
}

func Leveled(l Logger) *LeveledAdapter {
	return &LeveledAdapter{log: l}
}

func (a *LeveledAdapter) Error(msg string, keysAndValues ...interface{}) {
	var err error
	args := make([]any, 0, len(keysAndValues))
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if e, ok := keysAndValues[i+1].(error); ok && err == nil {
			err = e
			continue
		}
		args = append(args, fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	a.log.Error(msg, err, args...)
}

func (a *LeveledAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.log.Debug(msg, keysAndValues...)
}

func (a *LeveledAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.log.Trace(msg, keysAndValues...)
}

func (a *LeveledAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.log.Warn(msg, keysAndValues...)
}
