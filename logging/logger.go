package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// BoostrapLogger initializes the shared logger. Level comes from LOG_LEVEL
// when set, debug otherwise. Lambda collects stdout, so everything goes there.
func BoostrapLogger() {
	Log = logrus.New()
	Log.SetOutput(os.Stdout)
	Log.SetReportCaller(true)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	Log.SetLevel(logrus.DebugLevel)
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err := logrus.ParseLevel(raw); err == nil {
			Log.SetLevel(level)
		}
	}
}
