package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &loadOptions{}

	rootCmd := &cobra.Command{
		Use:           "dataprobe-cli",
		Short:         "Profile, summarize and filter CSV or Excel files without the web UI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.delimiter, "delimiter", ",", `CSV field delimiter ("\t" for tabs)`)
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "WARN", "Log level: ERROR|WARN|INFO|DEBUG|TRACE")

	rootCmd.AddCommand(
		newProfileCmd(opts),
		newSummaryCmd(opts),
		newExportCmd(opts),
	)
	return rootCmd
}
