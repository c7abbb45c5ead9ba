package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canopyhq/canopy"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of canopy",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("canopy version %s\n", strings.TrimSpace(canopy.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
