package badger

import (
	"io"
	"log/slog"
)

// NewMemoryBackend opens an in-memory store with logging discarded.
// Caller must Close it when done.
func NewMemoryBackend() (*Backend, error) {
	return OpenBackend("", true, slog.New(slog.NewTextHandler(io.Discard, nil)))
}
