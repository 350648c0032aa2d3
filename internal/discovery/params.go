package discovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/filter"
)

// Mode selects which changes a rediscovery run applies.
type Mode string

const (
	// ModeNew adds new services and keeps vanished ones.
	ModeNew Mode = "new"
	// ModeRemove removes vanished services and adds nothing.
	ModeRemove Mode = "remove"
	// ModeFixAll adds new and removes vanished services.
	ModeFixAll Mode = "fixall"
	// ModeRefresh behaves like ModeNew. It is the default.
	ModeRefresh Mode = "refresh"
)

// Modes lists all valid modes.
var Modes = []Mode{ModeNew, ModeRemove, ModeFixAll, ModeRefresh}

// ParseMode parses a mode name. The empty string yields ModeRefresh.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeRefresh, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown discovery mode %q", domain.ErrConfiguration, s)
}

func (m Mode) addsNew() bool {
	return m == ModeNew || m == ModeFixAll || m == ModeRefresh
}

func (m Mode) removesVanished() bool {
	return m == ModeRemove || m == ModeFixAll
}

// RediscoveryParams configure a rediscovery run. Mode is the default used
// when a caller does not request one explicitly.
type RediscoveryParams struct {
	Mode            Mode `yaml:"mode" json:"mode,omitempty" validate:"omitempty,oneof=new remove fixall refresh"`
	filter.Patterns `yaml:",inline"`
}

var validate = validator.New()

// Validate checks the mode. Patterns are checked when filters are compiled.
func (p RediscoveryParams) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: rediscovery %s: invalid value %v", domain.ErrConfiguration, strings.ToLower(verrs[0].Field()), verrs[0].Value())
	}
	return fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
}

// EffectiveMode returns requested if set, otherwise the configured mode,
// otherwise ModeRefresh.
func (p RediscoveryParams) EffectiveMode(requested Mode) Mode {
	switch {
	case requested != "":
		return requested
	case p.Mode != "":
		return p.Mode
	default:
		return ModeRefresh
	}
}
