package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

var ErrUnknownTheme = errors.New("unknown theme")

// Settings are the user preferences that survive restarts. They are loaded
// once by the command that needs them and passed along explicitly.
type Settings struct {
	Language string `yaml:"language"`
	Theme    string `yaml:"theme"`
}

// DefaultSettings uses the light theme and the system locale.
func DefaultSettings() Settings {
	return Settings{
		Language: systemLanguage(),
		Theme:    ThemeLight,
	}
}

// DefaultSettingsPath returns <user config dir>/whisperli/settings.yml.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "whisperli", "settings.yml"), nil
}

// LoadSettings reads path on top of the defaults. A missing file is not an
// error.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	if settings.Theme != ThemeDark {
		settings.Theme = ThemeLight
	}
	if tag, err := language.Parse(settings.Language); err == nil {
		settings.Language = tag.String()
	} else {
		settings.Language = systemLanguage()
	}
	return settings, nil
}

// Save writes the settings as YAML, creating the parent directory.
func (s Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Settings) SetTheme(theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	s.Theme = theme
	return nil
}

// SetLanguage stores the canonical BCP 47 form of locale. POSIX style
// locales such as "it_IT" are accepted.
func (s *Settings) SetLanguage(locale string) error {
	tag, err := parseLocale(locale)
	if err != nil {
		return fmt.Errorf("invalid language %q: %w", locale, err)
	}
	s.Language = tag.String()
	return nil
}

func (s Settings) IsDarkTheme() bool {
	return s.Theme == ThemeDark
}

func parseLocale(locale string) (language.Tag, error) {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	return language.Parse(strings.ReplaceAll(locale, "_", "-"))
}

func systemLanguage() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" && v != "C" && v != "POSIX" {
			if tag, err := parseLocale(v); err == nil {
				return tag.String()
			}
		}
	}
	return language.English.String()
}
