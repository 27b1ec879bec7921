package cmd

import (
	"fmt"
	"os"

	"showroom-archives/lib/configuration"
	"showroom-archives/lib/telemetry"
	"showroom-archives/services/archives"

	"github.com/spf13/cobra"
)

var verbose bool

var service archives.Service

var rootCmd = &cobra.Command{
	Use:   "archives-cli",
	Short: "archives-cli lists downloadable live archives for an account id.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false,
		"enable debug logging",
	)
}

func Execute() {
	config, err := configuration.ReadRecursively[archives.Config]("archives.json5")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read archives.json5: %s\n", err.Error())
		os.Exit(1)
	}
	service = archives.NewService(config)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
