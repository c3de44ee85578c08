package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "esi-stream",
	Short: "A streaming Edge Side Includes transformer",
	Long: `esi-stream transforms an HTML byte stream carrying ESI directives
(esi:include, esi:choose, esi:vars, and friends) into its substituted form,
fetching includes against a base URL as it goes.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default esi_prefix, headers, timeout)")
}
