package logger

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// Options controls where and how much we log.
type Options struct {
	Level string
	File  string
}

// Setup initializes Logrus to write to stdout and a rotating file, and returns that writer
// so request logging can share it.
func Setup(opts Options) io.Writer {
	out := io.Writer(os.Stdout)
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
	}

	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
		logrus.WithField("level", opts.Level).Warn("Unknown log level, using info.")
	}
	logrus.SetLevel(level)

	// Route the standard library logger through logrus as well.
	log.SetOutput(logrus.StandardLogger().Writer())
	log.SetFlags(0)

	return out
}

// GormLogger adapts the standard Logrus logger for GORM. SQL is traced at debug level only.
func GormLogger() gormlogger.Interface {
	level := gormlogger.Warn
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	return gormlogger.New(logrus.StandardLogger(), gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
