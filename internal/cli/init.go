package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/internal/sqlite"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize slate configuration and storage",
		Long:  "Create the configuration and data directories, write a default config.yaml\nand initialize the scene store.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(flags)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(s.ConfigDir, 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			configPath := filepath.Join(s.ConfigDir, configFileExt)
			written, err := writeConfigIfMissing(configPath, s.Store.DataDir)
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			store := sqlite.NewBackend()
			if err := store.Attach(s.Store); err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			if err := store.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			if flags.jsonMode {
				return writeJSON(cmd, map[string]any{
					"config_dir":     s.ConfigDir,
					"data_dir":       s.Store.DataDir,
					"config_written": written,
				})
			}
			out := cmd.OutOrStdout()
			if written {
				fmt.Fprintf(out, "Wrote %s\n", configPath)
			}
			fmt.Fprintf(out, "Slate initialized in %s\n", s.Store.DataDir)
			return nil
		},
	}
}
