package rosterload

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/huddle/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the global logger on stderr, teed into logFile
// when one is given. The returned func closes the file.
func SetupLogging(logFile, format string) (logger.Logger, func(), error) {
	if logFile == "" {
		if err := logger.InitWithWriter(os.Stderr, format); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return logger.Get(), func() {}, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stderr, file), format); err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Get(), func() { _ = file.Close() }, nil
}
