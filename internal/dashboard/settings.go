package dashboard

import (
	"context"
	"fmt"

	"github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/sonic-ru/zbxdash/internal/store"
)

// Theme selects the color scheme presented by consumers.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DefaultLanguage is the language used until one is chosen.
const DefaultLanguage = "English"

// AppSettings is the durable application settings record.
type AppSettings struct {
	Theme    Theme  `json:"theme"`
	Language string `json:"language"`
}

// withDefaults fills zero fields so absent records materialize as the
// documented defaults rather than empty strings.
func (s AppSettings) withDefaults() AppSettings {
	if s.Theme == "" {
		s.Theme = ThemeSystem
	}
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	return s
}

// ParseTheme validates a theme name.
func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case ThemeLight, ThemeDark, ThemeSystem:
		return Theme(s), nil
	}
	return "", errors.New(errors.ErrConfig,
		fmt.Sprintf("Unknown theme '%s'", s),
		"Use light, dark, or system")
}

// Settings returns the current application settings.
func (c *Coordinator) Settings(ctx context.Context) (AppSettings, error) {
	s, err := store.Read[AppSettings](ctx, c.store, store.KeyAppSettings)
	if err != nil {
		return AppSettings{}, err
	}
	return s.withDefaults(), nil
}

// UpdateTheme persists the theme, leaving other settings untouched.
func (c *Coordinator) UpdateTheme(ctx context.Context, theme Theme) (AppSettings, error) {
	return c.mutateSettings(ctx, func(s AppSettings) AppSettings {
		s.Theme = theme
		return s
	})
}

// UpdateLanguage persists the language, leaving other settings untouched.
func (c *Coordinator) UpdateLanguage(ctx context.Context, language string) (AppSettings, error) {
	return c.mutateSettings(ctx, func(s AppSettings) AppSettings {
		s.Language = language
		return s
	})
}

// ObserveSettings streams the settings: current value immediately, then
// after every write. Values carry defaults applied.
func (c *Coordinator) ObserveSettings(ctx context.Context) (<-chan AppSettings, func()) {
	raw, cancel := store.Observe[AppSettings](ctx, c.store, store.KeyAppSettings)
	out := make(chan AppSettings, 1)
	go func() {
		defer close(out)
		for s := range raw {
			out <- s.withDefaults()
		}
	}()
	return out, cancel
}

func (c *Coordinator) mutateSettings(ctx context.Context, fn func(AppSettings) AppSettings) (AppSettings, error) {
	s, err := store.Mutate(ctx, c.store, store.KeyAppSettings, func(s AppSettings) AppSettings {
		return fn(s.withDefaults())
	})
	if err != nil {
		return AppSettings{}, err
	}
	return s, nil
}
