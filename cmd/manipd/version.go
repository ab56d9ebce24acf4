package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/manipd"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of manipd",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "manipd version %s\n", strings.TrimSpace(manipd.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
