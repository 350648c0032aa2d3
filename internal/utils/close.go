package utils

import (
	"io"

	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup where a write error is already being returned.
func Close(c io.Closer) {
	_ = c.Close()
}

// MustClose closes c and logs any error under the given resource name.
func MustClose(c io.Closer, log logger.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", what), logger.Error(err))
	}
}
