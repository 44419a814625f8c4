package profiler

import (
	"os"

	"github.com/sirupsen/logrus"
)

// logEntry is the narrow logging surface the rest of this package
// depends on, so tests can swap in a discard logger without dragging
// logrus.Entry's full method set into every signature.
type logEntry interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// newLogger builds the package logger at the verbosity spec.md §6's
// logLevel option selects: 0 silences everything above Error, higher
// values step down through logrus's levels.
func newLogger(level int) logEntry {
	l := logrus.New()
	l.Out = os.Stderr
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	l.SetLevel(levelFor(level))
	return l.WithField("component", "profiler")
}

func levelFor(level int) logrus.Level {
	switch {
	case level <= 0:
		return logrus.ErrorLevel
	case level == 1:
		return logrus.WarnLevel
	case level == 2:
		return logrus.InfoLevel
	case level == 3:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}
