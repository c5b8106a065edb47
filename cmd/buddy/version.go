package main

import (
	"fmt"

	"github.com/aretw0/buddy"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of buddy",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "buddy version %s\n", buddy.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
