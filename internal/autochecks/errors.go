package autochecks

import (
	"fmt"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

// ParseError reports a persisted file that exists but cannot be decoded.
// It matches domain.ErrConfiguration.
type ParseError struct {
	Host string
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid data of host %q in %s: %v", e.Host, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == domain.ErrConfiguration }
