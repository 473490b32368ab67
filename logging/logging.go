// Package logging wraps logrus behind a small structured-field logger,
// grounded on the injected *logger.Logger pattern used by the dispatch
// services in the retrieved pack: callers never touch the global logrus
// logger, they hold an injected *Logger and call its -w (with-fields)
// methods.
package logging

import "github.com/sirupsen/logrus"

// Logger wraps a logrus.Entry so every log line can carry structured
// fields (vehicle_id, request_id, cycle) without call sites building
// logrus.Fields by hand.
type Logger struct {
	entry *logrus.Entry
}

// New builds a Logger writing JSON lines at the given level.
func New(level logrus.Level) *Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetLevel(level)
	return &Logger{entry: logrus.NewEntry(base)}
}

// With returns a child Logger carrying the given structured fields in
// addition to any this Logger already carries.
func (l *Logger) With(kv ...interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(kvToFields(kv))}
}

func (l *Logger) Infow(msg string, kv ...interface{})  { l.entry.WithFields(kvToFields(kv)).Info(msg) }
func (l *Logger) Warnw(msg string, kv ...interface{})  { l.entry.WithFields(kvToFields(kv)).Warn(msg) }
func (l *Logger) Errorw(msg string, kv ...interface{}) { l.entry.WithFields(kvToFields(kv)).Error(msg) }
func (l *Logger) Debugw(msg string, kv ...interface{}) { l.entry.WithFields(kvToFields(kv)).Debug(msg) }

func kvToFields(kv []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}
