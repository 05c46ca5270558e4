package cmd

import (
	"github.com/bboxx/overwatch/config"
	"github.com/bboxx/overwatch/internal/cmdutil"
	"github.com/spf13/cobra"
)

func init() {
	Configure.Flags().String("output", "overwatch.yaml", "File to write the default configuration to")
}

// Configure command
var Configure = &cobra.Command{
	Use:   "configure",
	Short: "Write a default configuration file to edit",
	Run: func(cmd *cobra.Command, args []string) {
		output := cmdutil.GetFlagString(cmd, "output")
		if err := config.Write(config.DefaultConfig, output); err != nil {
			die("Error writing configuration: %s", err)
		}
	},
}
