// Package logger provides structured event logging for the whole service.
// Every log line is a named event plus a flat field map, so entries can be
// filtered and aggregated without parsing free-form messages.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Init configures the process-wide logger. Output is JSON on stdout; the
// level comes from LOG_LEVEL (debug, info, warn, error; default info).
func Init() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	log.SetLevel(levelFromEnv())
}

func levelFromEnv() logrus.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func Debug(event string, fields map[string]interface{}) {
	log.WithFields(logrus.Fields(fields)).Debug(event)
}

func Info(event string, fields map[string]interface{}) {
	log.WithFields(logrus.Fields(fields)).Info(event)
}

func Warn(event string, fields map[string]interface{}) {
	log.WithFields(logrus.Fields(fields)).Warn(event)
}

func Error(event string, fields map[string]interface{}) {
	log.WithFields(logrus.Fields(fields)).Error(event)
}

// InfoWithUser attaches the acting user's id to the event fields.
func InfoWithUser(userID, event string, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["user_id"] = userID
	Info(event, fields)
}
