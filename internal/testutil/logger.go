package testutil

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/dtroode/vaultqa/internal/logger"
)

func MakeNoopLogger() *logger.Logger {
	return &logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))}
}

// MakeBufferLogger returns a debug-level logger and the buffer it writes to.
func MakeBufferLogger() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewWithWriter(&buf, int(slog.LevelDebug)), &buf
}
