package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/gitlab-time-sync/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration (token redacted)",
	Args:  noArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return usageError{err}
	}

	path := configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrConfigCreated) {
		fmt.Println(err)
		return nil
	}
	if err != nil {
		return usageError{err}
	}
	if dbPath != "" {
		cfg.Default.DB = dbPath
	}

	out, err := cfg.YAML()
	if err != nil {
		return err
	}
	fmt.Printf("# %s\n%s", cfg.Path, out)
	if err := cfg.Validate(true); err != nil {
		fmt.Fprintf(os.Stderr, "\nWarning: %v\n", err)
	}
	return nil
}
