package main

import (
	"os"

	"github.com/go-arcade/squadio/pkg/version"
	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "squadio",
	Short:         "squadio manages the team accountability database",
	Long:          "squadio migrates, seeds and maintains the team accountability database.",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path, defaults to conf.d/config.toml")
	rootCmd.AddCommand(
		migrateCmd,
		seedCmd,
		healthCmd,
		purgeCmd,
		perfCmd,
		backupCmd,
		restoreCmd,
		maintainCmd,
		configCmd,
		version.VersionCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
