package cmd

import (
	"fmt"

	"whisperli/config"

	"github.com/spf13/cobra"
)

func settingsPath() (string, error) {
	if cfg.SettingsFile != "" {
		return cfg.SettingsFile, nil
	}
	return config.DefaultSettingsPath()
}

// updateSettings loads, changes and saves the settings file.
func updateSettings(change func(s *config.Settings) error) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	s, err := config.LoadSettings(path)
	if err != nil {
		return err
	}
	if err := change(&s); err != nil {
		return err
	}
	if err := s.Save(path); err != nil {
		return err
	}
	fmt.Printf("language: %s\ntheme:    %s\n", s.Language, s.Theme)
	return nil
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the user settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := settingsPath()
		if err != nil {
			return err
		}
		s, err := config.LoadSettings(path)
		if err != nil {
			return err
		}
		fmt.Printf("file:     %s\nlanguage: %s\ntheme:    %s\n", path, s.Language, s.Theme)
		return nil
	},
}

var settingsThemeCmd = &cobra.Command{
	Use:       "theme <light|dark>",
	Short:     "Set the theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{config.ThemeLight, config.ThemeDark},
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(func(s *config.Settings) error { return s.SetTheme(args[0]) })
	},
}

var settingsLanguageCmd = &cobra.Command{
	Use:   "language <locale>",
	Short: "Set the interface language, e.g. en or fr-FR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSettings(func(s *config.Settings) error { return s.SetLanguage(args[0]) })
	},
}

func init() {
	settingsCmd.AddCommand(settingsThemeCmd, settingsLanguageCmd)
	rootCmd.AddCommand(settingsCmd)
}
