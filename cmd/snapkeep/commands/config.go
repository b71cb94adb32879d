package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/internal/config"
)

var (
	configFormat string
	configForce  bool
)

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", config.FormatYAML, "output format: yaml, toml")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect snapkeep configuration",
	Long: `Inspect snapkeep configuration stored in ~/.config/snapkeep/config.yaml.

Every key can be overridden with an environment variable, e.g.
SNAPKEEP_BACKUP_BASE or SNAPKEEP_DISCOVERY_MAX_DEPTH.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after defaults, the config file and environment overrides are merged.`,
	Example: `  snapkeep config show
  snapkeep config show --format toml`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runConfigShowWithWriter(os.Stdout, appConfig, config.ConfigFileUsed(), configFormat)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Example: `  snapkeep config init
  snapkeep config init ./config.yaml --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) == 1 {
			path = args[0]
		}
		return runConfigInitWithWriter(os.Stdout, path, configForce)
	},
}

func runConfigShowWithWriter(w io.Writer, cfg *config.Config, source, format string) error {
	data, err := config.Marshal(cfg, format)
	if err != nil {
		return mapError(err)
	}
	if source != "" {
		fmt.Fprintf(w, "# loaded from %s\n", source)
	}
	_, err = w.Write(data)
	return err
}

func runConfigInitWithWriter(w io.Writer, path string, force bool) error {
	if err := config.WriteDefault(path, force); err != nil {
		return mapError(err)
	}
	fmt.Fprintf(w, "%s Wrote %s\n", green("✓"), path)
	return nil
}
