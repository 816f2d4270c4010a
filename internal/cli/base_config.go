package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

const DefaultLogLevel = logrus.InfoLevel

// BaseConfig holds the flags shared by every idevice-* command: logging
// detail and the optional debug HTTP server. Device-selection flags (host,
// pairing file, UDID) are registered separately by RegisterDeviceFlags.
type BaseConfig struct {
	LogLevel   string
	Verbose    bool
	ServeDebug bool
}

const (
	LogLevelFlag   = "log"
	VerboseFlag    = "verbose"
	ServeDebugFlag = "debug"
)

// RegisterBaseFlags wires the shared flags into kingpin's default app.
func RegisterBaseFlags(config *BaseConfig) {
	logLevels := []string{
		logrus.PanicLevel.String(),
		logrus.FatalLevel.String(),
		logrus.ErrorLevel.String(),
		logrus.WarnLevel.String(),
		logrus.InfoLevel.String(),
		logrus.DebugLevel.String(),
	}
	kingpin.Flag(LogLevelFlag, fmt.Sprintf("Detail of logs to show. Options are: %v", logLevels)).
		Default(DefaultLogLevel.String()).EnumVar(&config.LogLevel, logLevels...)
	kingpin.Flag(VerboseFlag, "Alias for --log=debug.").Short('v').BoolVar(&config.Verbose)
	kingpin.Flag(ServeDebugFlag, "If set, start an HTTP server exposing profiling and trace logs.").BoolVar(&config.ServeDebug)
}

func (c *BaseConfig) createLogger() *logrus.Logger {
	log := logrus.StandardLogger()

	if c.Verbose {
		log.Level = logrus.DebugLevel
	} else {
		level, err := logrus.ParseLevel(c.LogLevel)
		if err != nil {
			log.Fatal(err)
		}
		log.Level = level
	}

	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000000000Z07:00",
	}
	return log
}
