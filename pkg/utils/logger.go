package utils

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a logger writing to filePath. The file is rotated once it
// grows past maxSizeMB, keeping at most maxBackups old files next to it.
func NewLogger(filePath string, maxSizeMB, maxBackups int) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, nil, err
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	if maxBackups <= 0 {
		maxBackups = 1
	}
	w := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}
	return log.New(w, "userlaunch ", log.LstdFlags|log.LUTC), w, nil
}
