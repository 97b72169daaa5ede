package slogger

// DevNullLogger implements the Logger interface but does nothing.
type DevNullLogger struct{}

// NewDevNullLogger returns a new DevNullLogger instance
func NewDevNullLogger() *DevNullLogger {
	return &DevNullLogger{}
}

func (l *DevNullLogger) Debug(msg string, keysAndValues ...any) {}
func (l *DevNullLogger) Info(msg string, keysAndValues ...any)  {}
func (l *DevNullLogger) Warn(msg string, keysAndValues ...any)  {}
func (l *DevNullLogger) Error(msg string, keysAndValues ...any) {}
func (l *DevNullLogger) With(keysAndValues ...any) Logger       { return l }

// multiLogger fans every call out to a fixed set of loggers.
type multiLogger []Logger

// Multi returns a Logger that writes to each of the given loggers.
// Nil entries are dropped.
func Multi(loggers ...Logger) Logger {
	var m multiLogger
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	switch len(m) {
	case 0:
		return NewDevNullLogger()
	case 1:
		return m[0]
	}
	return m
}

func (m multiLogger) Debug(msg string, keysAndValues ...any) {
	for _, l := range m {
		l.Debug(msg, keysAndValues...)
	}
}

func (m multiLogger) Info(msg string, keysAndValues ...any) {
	for _, l := range m {
		l.Info(msg, keysAndValues...)
	}
}

func (m multiLogger) Warn(msg string, keysAndValues ...any) {
	for _, l := range m {
		l.Warn(msg, keysAndValues...)
	}
}

func (m multiLogger) Error(msg string, keysAndValues ...any) {
	for _, l := range m {
		l.Error(msg, keysAndValues...)
	}
}

func (m multiLogger) With(keysAndValues ...any) Logger {
	out := make(multiLogger, len(m))
	for i, l := range m {
		out[i] = l.With(keysAndValues...)
	}
	return out
}
