package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/scorm"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of scorm",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scorm version %s\n", strings.TrimSpace(scorm.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
