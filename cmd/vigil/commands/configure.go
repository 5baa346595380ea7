package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yairfalse/vigil/pkg/config"
)

func newConfigureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Write a default configuration file",
		Long: `Configure writes the built-in defaults to ~/.vigil/config.yaml as a
starting point. An existing file is never overwritten unless --force is
given.`,
		Example: `  vigil configure
  vigil configure --force --path /etc/vigil/config.yaml`,
		RunE: runConfigure,
	}

	cmd.Flags().String("path", "", "config file location (default ~/.vigil/config.yaml)")
	cmd.Flags().Bool("force", false, "overwrite an existing config file")

	return cmd
}

func runConfigure(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("path")
	force, _ := cmd.Flags().GetBool("force")

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to determine home directory: %w", err)
		}
		path = filepath.Join(home, ".vigil", "config.yaml")
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
