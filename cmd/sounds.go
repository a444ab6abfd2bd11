package cmd

import (
	"fmt"

	"whisperli/core/catalog"

	"github.com/spf13/cobra"
)

func openCatalog() *catalog.Catalog {
	return catalog.New(cfg.SoundsDir, cfg.UserSoundsDir, nil)
}

var soundsCmd = &cobra.Command{
	Use:   "sounds [category]",
	Short: "List the available sounds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := openCatalog()
		if len(args) == 1 {
			sounds := c.Sounds(args[0])
			if sounds == nil {
				return fmt.Errorf("no category %q", args[0])
			}
			for _, ref := range sounds {
				fmt.Printf("%-24s %s\n", catalog.Name(ref), ref)
			}
			return nil
		}
		for _, cat := range c.Categories() {
			fmt.Printf("%s\n", cat)
			for _, ref := range c.Sounds(cat) {
				fmt.Printf("  %s\n", catalog.Name(ref))
			}
		}
		return nil
	},
}

var soundsImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Copy sound files into the user sounds directory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, paths := openCatalog().Import(args)
		for _, p := range paths {
			fmt.Printf("imported %s\n", p)
		}
		if n < len(args) {
			fmt.Printf("%d of %d files skipped (unsupported or unreadable)\n", len(args)-n, len(args))
		}
		return nil
	},
}

func init() {
	soundsCmd.AddCommand(soundsImportCmd)
	rootCmd.AddCommand(soundsCmd)
}
