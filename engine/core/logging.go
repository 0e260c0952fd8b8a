package core

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	once.Do(
		func() {
			l := log.NewWithOptions(os.Stderr, log.Options{
				ReportCaller:    true,
				ReportTimestamp: true,
				TimeFormat:      time.RFC3339,
				Prefix:          "Lumen 💡",
				CallerOffset:    1,
			})
			l.SetLevel(log.InfoLevel)
			singleton = &logger{l}
		})
	return singleton
}

// SetLogLevel applies one of "debug", "info", "warn", "error" or "fatal".
// An empty or unknown level falls back to info.
func SetLogLevel(level string) {
	level = strings.TrimSpace(level)
	if level == "" {
		getLogger().SetLevel(log.InfoLevel)
		return
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		getLogger().SetLevel(log.InfoLevel)
		LogWarn("%s, using info", err)
		return
	}
	getLogger().SetLevel(parsed)
}

// LogLevel reports the active level.
func LogLevel() log.Level {
	return getLogger().GetLevel()
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
