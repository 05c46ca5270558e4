package cmd

import (
	"context"

	"github.com/bboxx/overwatch/dispatch"
	"github.com/bboxx/overwatch/internal/cmdutil"
	"github.com/bboxx/overwatch/worker"
	"github.com/spf13/cobra"

	// Load fetcher drivers
	_ "github.com/bboxx/overwatch/fetcher/postgres"
)

func init() {
	Slave.Flags().StringSlice("files", nil, "Definition files from the catalog to evaluate")
}

// Slave command
var Slave = &cobra.Command{
	Use:   "slave",
	Short: "Evaluate one batch of test definition files and publish results",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig(cmd)
		files := cmdutil.GetFlagStringSlice(cmd, "files")

		if len(files) == 0 {
			die("No definition files specified")
		}

		w := worker.New(cfg, dispatch.RoleSlave, nil, nil)
		if err := w.RunSlave(context.Background(), files); err != nil {
			die("Error evaluating batch: %s", err)
		}
	},
}
