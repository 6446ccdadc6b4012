// Command backlog is the command-line client of the backlog tracker.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/persistorai/backlog/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3040"

var (
	apiClient *client.Client
	flagURL   string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("backlog version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("backlog version %s-dev", version)
}

// configFile is the layout of ~/.backlog/config.yaml.
type configFile struct {
	URL    string `yaml:"url"`
	Format string `yaml:"format"`
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "backlog",
		Short:   "Backlog tracker CLI",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig(cmd)
			apiClient = client.New(flagURL)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Server URL (env: BACKLOG_URL)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "table", "Output format: json|table|quiet")

	rootCmd.AddCommand(newProjectCmd())
	rootCmd.AddCommand(newBacklogCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig fills flags the user did not set, from BACKLOG_URL and then
// the config file.
func resolveConfig(cmd *cobra.Command) {
	urlSet := cmd.Flags().Changed("url")
	fmtSet := cmd.Flags().Changed("format")

	if !urlSet {
		if v := os.Getenv("BACKLOG_URL"); v != "" {
			flagURL = v
			urlSet = true
		}
	}

	cfg, err := loadConfigFile()
	if err != nil {
		return
	}

	if !urlSet && cfg.URL != "" {
		flagURL = cfg.URL
	}
	if !fmtSet && cfg.Format != "" {
		flagFmt = cfg.Format
	}
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".backlog", "config.yaml"), nil
}

func loadConfigFile() (*configFile, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}
