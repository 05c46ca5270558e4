package cmd

import (
	"context"

	"github.com/bboxx/overwatch/client"
	"github.com/bboxx/overwatch/dispatch"
	"github.com/bboxx/overwatch/internal/cmdutil"
	"github.com/bboxx/overwatch/worker"
	"github.com/spf13/cobra"

	// Load fetcher drivers for in process runs
	_ "github.com/bboxx/overwatch/fetcher/postgres"
)

func init() {
	Master.Flags().Int("start-index", 0, "Catalog cursor to resume dispatching from")
}

// Master command
var Master = &cobra.Command{
	Use:   "master",
	Short: "Dispatch the test catalog in batches to worker invocations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig(cmd)
		startIndex := cmdutil.GetFlagInt(cmd, "start-index")

		var invoker dispatch.Invoker
		if cfg.Run.WorkerURL != "" {
			c, err := client.New(client.Config{
				URL:              cfg.Run.WorkerURL,
				TimeBetweenCalls: cfg.Run.TimeBetweenCalls,
			})
			if err != nil {
				die("Error creating worker client: %s", err)
			}
			invoker = c
		}

		w := worker.New(cfg, dispatch.RoleMaster, invoker, nil)
		if err := w.RunMaster(context.Background(), startIndex); err != nil {
			die("Error dispatching catalog: %s", err)
		}
	},
}
