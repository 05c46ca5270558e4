// Package log implements the process wide structured logger.
package log

import (
	"os"
	"sync"

	"github.com/brunotm/log"
)

var (
	logger *log.Logger
	once   sync.Once
)

// Init the package logger with the given level. Entries made before Init
// are discarded.
func Init(level string) (err error) {
	l, err := log.ParseLevel(level)
	if err != nil {
		return err
	}

	once.Do(func() {
		config := log.DefaultConfig
		config.Level = l
		config.EnableSampling = false
		config.CallerSkip = 1
		logger = log.New(os.Stdout, config)
	})

	return nil
}

// Debug creates a new debug level entry with the given message
func Debug(message string) (e log.Entry) {
	if logger == nil {
		return log.Entry{}
	}
	return logger.Debug(message)
}

// Info creates a new info level entry with the given message
func Info(message string) (e log.Entry) {
	if logger == nil {
		return log.Entry{}
	}
	return logger.Info(message)
}

// Warn creates a new warn level entry with the given message
func Warn(message string) (e log.Entry) {
	if logger == nil {
		return log.Entry{}
	}
	return logger.Warn(message)
}

// Error creates a new error level entry with the given message
func Error(message string) (e log.Entry) {
	if logger == nil {
		return log.Entry{}
	}
	return logger.Error(message)
}
