package emu

import "github.com/sirupsen/logrus"

// DefaultLogger returns a logger that only reports warnings and above.
func DefaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// DebugEnabled reports whether l would emit Debug entries. Step traces are
// skipped entirely otherwise.
func DebugEnabled(l logrus.FieldLogger) bool {
	switch v := l.(type) {
	case *logrus.Logger:
		return v.IsLevelEnabled(logrus.DebugLevel)
	case *logrus.Entry:
		return v.Logger.IsLevelEnabled(logrus.DebugLevel)
	default:
		return true
	}
}
