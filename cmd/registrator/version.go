package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"image-registrator/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of registrator",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("registrator version %s (%s)\n", version.Version, version.GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
