package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "pinboard",
		Short:         "Command-line client for the Pinboard bookmarking API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "./config.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log_level (error, warn, info, debug)")

	rootCmd.AddCommand(
		newUpdateCmd(flags),
		newAddCmd(flags),
		newDeleteCmd(flags),
		newRecentCmd(flags),
		newAllCmd(flags),
		newGetCmd(flags),
		newDatesCmd(flags),
		newSuggestCmd(flags),
		newTagsCmd(flags),
		newNotesCmd(flags),
		newSecretCmd(flags),
		newTokenCmd(flags),
		newEncryptTokenCmd(flags),
	)
	return rootCmd
}
