package main

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// initSlog installs a JSON slog logger writing to a rotating log file,
// generalizing the teacher's initSlog (which truncated a single flat file
// on every invocation) with the already-declared lumberjack rotation
// policy so long daemon-free CLI sessions don't grow an unbounded log.
func initSlog(logFile, logLevel string) {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	writer := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
