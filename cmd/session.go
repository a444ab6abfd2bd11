package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"whisperli/app"
	"whisperli/core/session"
	"whisperli/logger"
	"whisperli/model"

	"github.com/spf13/cobra"
)

var (
	exportYAML bool
	exportOut  string
	importName string
)

// withSessions opens the configured store for the duration of f.
func withSessions(f func(m *session.Manager) error) error {
	store, closeStore, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer func() {
			if err := closeStore(); err != nil {
				logger.Warn("failed to close session store", logger.ErrorField(err))
			}
		}()
	}
	return f(session.NewManager(store, nil))
}

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Manage saved sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(m *session.Manager) error {
			names, err := m.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				info, err := m.Info(cmd.Context(), name)
				if err != nil {
					fmt.Printf("%-24s (unreadable: %v)\n", name, err)
					continue
				}
				fmt.Printf("%-24s %2d tracks  %s\n", name, info.TrackCount, info.Metadata.Created)
			}
			return nil
		})
	},
}

var sessionInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(m *session.Manager) error {
			s, err := m.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("name:        %s\ncreated:     %s\ndescription: %s\nversion:     %s\n",
				s.Metadata.Name, s.Metadata.Created, s.Metadata.Description, s.Version)
			for i, t := range s.Tracks {
				fmt.Printf("%2d. %-24s vol %3d  loop %-5t  auto %-5t (%s)  replay %-5t (%ds %s)\n",
					i+1, session.Stem(t.SoundFile), t.Volume, t.Loop,
					t.VolumeAuto, t.Speed, t.PlaybackAuto, t.Interval, t.IntervalType)
			}
			return nil
		})
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(m *session.Manager) error {
			ok, err := m.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", session.ErrSessionNotFound, args[0])
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		})
	},
}

var sessionExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Write a saved session as JSON or YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(func(m *session.Manager) error {
			s, err := m.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var data []byte
			if exportYAML {
				data, err = session.MarshalYAML(s)
			} else {
				data, err = session.Marshal(s)
			}
			if err != nil {
				return err
			}
			if exportOut == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(exportOut, data, 0o644)
		})
	},
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store a JSON or YAML session file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var s model.Session
		switch strings.ToLower(filepath.Ext(args[0])) {
		case ".yml", ".yaml":
			s, err = session.DecodeYAML(data)
		default:
			s, err = session.Decode(data)
		}
		if err != nil {
			return err
		}
		name := importName
		if name == "" {
			name = session.Stem(args[0])
		}
		return withSessions(func(m *session.Manager) error {
			if err := m.Put(cmd.Context(), name, s); err != nil {
				return err
			}
			fmt.Printf("imported %s (%d tracks)\n", name, len(s.Tracks))
			return nil
		})
	},
}

func init() {
	sessionExportCmd.Flags().BoolVar(&exportYAML, "yaml", false, "write YAML instead of JSON")
	sessionExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default stdout)")
	sessionImportCmd.Flags().StringVarP(&importName, "name", "n", "", "session name (default file name)")

	sessionCmd.AddCommand(sessionListCmd, sessionInfoCmd, sessionDeleteCmd, sessionExportCmd, sessionImportCmd)
	rootCmd.AddCommand(sessionCmd)
}
