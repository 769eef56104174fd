// Package logger holds the process-wide logrus loggers. InfoLogger carries
// request and lifecycle logs; ErrorLogger carries failures with their
// underlying cause.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	InfoLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

// Options controls where and how logs are written.
type Options struct {
	Env   string // "dev" selects the text formatter
	Dir   string // empty keeps output on stdout/stderr
	Level string
}

// InitLoggers configures both loggers. When Dir is set, output is written to
// rotated files under Dir in addition to the console.
func InitLoggers(opts Options) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	var formatter logrus.Formatter = &logrus.JSONFormatter{}
	if opts.Env == "" || opts.Env == "dev" {
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	}

	infoOut := io.Writer(os.Stdout)
	errorOut := io.Writer(os.Stderr)
	if opts.Dir != "" {
		infoOut = io.MultiWriter(os.Stdout, rotating(filepath.Join(opts.Dir, "info.log")))
		errorOut = io.MultiWriter(os.Stderr, rotating(filepath.Join(opts.Dir, "error.log")))
	}

	InfoLogger.SetFormatter(formatter)
	InfoLogger.SetLevel(level)
	InfoLogger.SetOutput(infoOut)

	ErrorLogger.SetFormatter(formatter)
	ErrorLogger.SetLevel(level)
	ErrorLogger.SetOutput(errorOut)
}

func rotating(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    20, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
}
