package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileName = "talentscout.log"

//nolint:gochecknoglobals
var logFile *lumberjack.Logger

// InitializeLogFile routes log output to <logsDir>/talentscout.log with size-based rotation.
// maxBackups bounds the number of rotated files kept. With tee set, output also goes to stderr.
func InitializeLogFile(logsDir string, maxBackups int, tee bool) error {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory %s: %w", logsDir, err)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logsDir, logFileName),
		MaxSize:    10, // megabytes
		MaxBackups: maxBackups,
		MaxAge:     30, // days
	}

	var w io.Writer = rotator
	if tee {
		w = io.MultiWriter(rotator, os.Stderr)
	}

	logWriterLock.Lock()
	logFile = rotator
	logWriter = w
	logWriterLock.Unlock()
	return nil
}

// CloseLogFile flushes and closes the log file, restoring stderr output.
func CloseLogFile() error {
	logWriterLock.Lock()
	defer logWriterLock.Unlock()

	logWriter = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
