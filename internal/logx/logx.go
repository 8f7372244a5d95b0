// Package logx wraps charmbracelet/log behind package-level helpers so the
// rest of the module never carries a logger handle around.
package logx

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

var logger = log.New(os.Stderr)

// Init reconfigures the shared logger. prefix tags every line, level is one of
// debug/info/warn/error/fatal (anything unparsable keeps the current level).
func Init(prefix, level string) {
	logger = log.New(os.Stderr)
	logger.SetPrefix(prefix)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)
	logger.SetReportCaller(true)
	if lv, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lv)
	}
}

func Debug(format string, args ...any) {
	logger.Debugf(format, args...)
}

func Info(format string, args ...any) {
	logger.Infof(format, args...)
}

func Warn(format string, args ...any) {
	logger.Warnf(format, args...)
}

func Error(format string, args ...any) {
	logger.Errorf(format, args...)
}

func Fatal(format string, args ...any) {
	logger.Fatalf(format, args...)
}
