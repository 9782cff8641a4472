package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jsamuelsen/quote-gallery/internal/domain"
	"github.com/jsamuelsen/quote-gallery/internal/ports"
)

// ThemePreferenceKey is the preference store key for the theme.
const ThemePreferenceKey = "themePreference"

// Theme is the colour scheme.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "dark" or "light" in any case.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeDark:
		return ThemeDark, nil
	case ThemeLight:
		return ThemeLight, nil
	default:
		return "", domain.NewValidationErrorWithValue("theme", "must be dark or light", s)
	}
}

// Toggled returns the other theme.
func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}

	return ThemeDark
}

// ThemeService resolves and persists the theme preference. Storage failures
// never reach the caller: the preference simply does not persist.
type ThemeService struct {
	store  ports.PreferenceStore
	system func() Theme
	logger *slog.Logger
}

// NewThemeService creates a ThemeService. system reports the platform's
// preferred scheme and is consulted only when nothing is stored; nil means
// light.
func NewThemeService(store ports.PreferenceStore, system func() Theme, logger *slog.Logger) *ThemeService {
	if store == nil {
		panic("theme service requires a preference store")
	}
	if system == nil {
		system = func() Theme { return ThemeLight }
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ThemeService{store: store, system: system, logger: logger}
}

// Resolve returns the stored theme, else the system preference. A stored
// value that is not a theme is ignored.
func (s *ThemeService) Resolve(ctx context.Context) Theme {
	if raw, ok := s.store.Get(ThemePreferenceKey); ok {
		if theme, err := ParseTheme(raw); err == nil {
			return theme
		}
		s.logger.DebugContext(ctx, "ignoring stored theme", slog.String("value", raw))
	}

	return s.system()
}

// Set stores theme and returns it.
func (s *ThemeService) Set(ctx context.Context, theme Theme) Theme {
	if err := s.store.Set(ThemePreferenceKey, string(theme)); err != nil {
		s.logger.WarnContext(ctx, "theme preference not saved", slog.Any("error", err))
	}

	return theme
}

// Toggle flips the resolved theme and stores the result.
func (s *ThemeService) Toggle(ctx context.Context) Theme {
	return s.Set(ctx, s.Resolve(ctx).Toggled())
}
