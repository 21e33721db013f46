package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/pipebuilder"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pipebuilder",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pipebuilder version %s\n", strings.TrimSpace(pipebuilder.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
