package model

import (
	"fmt"

	"github.com/bytedance/sonic"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
)

// SquadSettings is the JSON document stored in squads.settings.
type SquadSettings struct {
	Branding      Branding           `json:"branding"`
	Notifications SquadNotifications `json:"notifications"`
	Points        PointDefaults      `json:"points"`
}

type Branding struct {
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
	LogoURL        string `json:"logoUrl,omitempty"`
}

type SquadNotifications struct {
	EmailEnabled   bool        `json:"emailEnabled"`
	BrowserEnabled bool        `json:"browserEnabled"`
	QuietHours     *QuietHours `json:"quietHours,omitempty"`
}

// QuietHours is a daily window, "HH:MM" in the squad's local time.
type QuietHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type PointDefaults struct {
	MinPoints     int `json:"minPoints"`
	MaxPoints     int `json:"maxPoints"`
	DefaultPoints int `json:"defaultPoints"`
}

// UserSettings is the JSON document stored in users.settings.
type UserSettings struct {
	Theme         string            `json:"theme"`
	Notifications UserNotifications `json:"notifications"`
	Language      string            `json:"language"`
}

type UserNotifications struct {
	Email   bool `json:"email"`
	Browser bool `json:"browser"`
}

// Validate checks the point range and default.
func (s *SquadSettings) Validate() error {
	p := s.Points
	if p.MinPoints > p.MaxPoints {
		return fmt.Errorf("points.minPoints %d exceeds points.maxPoints %d", p.MinPoints, p.MaxPoints)
	}
	if p.DefaultPoints < p.MinPoints || p.DefaultPoints > p.MaxPoints {
		return fmt.Errorf("points.defaultPoints %d outside [%d, %d]", p.DefaultPoints, p.MinPoints, p.MaxPoints)
	}
	return nil
}

// Validate checks the theme and that language is a BCP 47 tag.
func (s *UserSettings) Validate() error {
	switch s.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		return fmt.Errorf("unknown theme %q", s.Theme)
	}
	if _, err := language.Parse(s.Language); err != nil {
		return fmt.Errorf("language %q: %w", s.Language, err)
	}
	return nil
}

func encodeSettings(v any) (datatypes.JSON, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func decodeSettings[T any](raw datatypes.JSON) (*T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	v := new(T)
	if err := sonic.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return v, nil
}
