package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggerService handles application logging. Output goes to stdout and a
// daily file under the data directory.
type LoggerService struct {
	logDir  string
	logFile *os.File
	logger  *logrus.Logger
}

// NewLoggerService creates a new logger service writing under dataDir/logs.
func NewLoggerService(dataDir string) *LoggerService {
	service := &LoggerService{
		logDir: filepath.Join(dataDir, "logs"),
		logger: logrus.New(),
	}
	service.initializeLogger()
	return service
}

// initializeLogger sets up the logging system
func (s *LoggerService) initializeLogger() {
	s.logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	s.logger.SetLevel(logrus.InfoLevel)

	if err := os.MkdirAll(s.logDir, 0755); err != nil {
		s.logger.SetOutput(os.Stdout)
		s.logger.Warnf("Could not create logs directory: %v. Logging to stdout only.", err)
		return
	}

	logPath := filepath.Join(s.logDir, fmt.Sprintf("kopipos_%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		s.logger.SetOutput(os.Stdout)
		s.logger.Warnf("Could not open log file: %v. Logging to stdout only.", err)
		return
	}

	s.logFile = file
	s.logger.SetOutput(io.MultiWriter(os.Stdout, file))
	s.logger.Infof("Logger initialized, log directory: %s", s.logDir)
}

// Logger exposes the underlying logrus logger.
func (s *LoggerService) Logger() *logrus.Logger {
	return s.logger
}

// LogInfo logs an informational message
func (s *LoggerService) LogInfo(message string, details ...string) {
	if len(details) > 0 {
		s.logger.WithField("details", details[0]).Info(message)
		return
	}
	s.logger.Info(message)
}

// LogWarning logs a warning
func (s *LoggerService) LogWarning(message string, details ...string) {
	if len(details) > 0 {
		s.logger.WithField("details", details[0]).Warn(message)
		return
	}
	s.logger.Warn(message)
}

// LogError logs an error with its message
func (s *LoggerService) LogError(message string, err error) {
	s.logger.WithError(err).Error(message)
}

// RecoverPanic logs a panic with its stack and keeps the process alive.
// Deferred at the top of every background goroutine.
func (s *LoggerService) RecoverPanic() {
	if r := recover(); r != nil {
		s.logger.WithField("stack", string(debug.Stack())).Errorf("Recovered from panic: %v", r)
	}
}

// Close closes the log file.
func (s *LoggerService) Close() error {
	if s.logFile != nil {
		return s.logFile.Close()
	}
	return nil
}
