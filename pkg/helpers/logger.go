package helpers

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// appFieldHook stamps every entry with the app name so lines from the API, worker and seeder
// can be told apart in a shared sink.
type appFieldHook struct{ app string }

func (h appFieldHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h appFieldHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["app"]; !ok {
		e.Data["app"] = h.app
	}
	return nil
}

// NewLogger creates a Logrus logger: text at debug level in development, JSON at info elsewhere.
// A non-empty level overrides the default.
func NewLogger(appName, env, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level = strings.TrimSpace(level); level != "" {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			logger.SetLevel(lvl)
		} else {
			logger.WithField("level", level).Warn("unknown log level; keeping default")
		}
	}
	logger.AddHook(appFieldHook{app: appName})
	logger.WithFields(logrus.Fields{"env": env, "level": logger.GetLevel().String()}).Info("logger initialized")
	return logger
}
