package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "pipebuilder",
	Short: "Pipebuilder is a headless pipeline builder engine",
	Long: `Pipebuilder validates component configurations against their definitions,
composes the pipeline graph from references and serves smart hints over HTTP and MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("dir", "", "Directory containing component definitions")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("store", "memory", "Recipe store: 'memory' or 'redis'")

	_ = v.BindPFlag("definitions_dir", flags.Lookup("dir"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("store.driver", flags.Lookup("store"))
}
