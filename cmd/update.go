package cmd

import (
	"context"

	"github.com/bboxx/overwatch/dispatch"
	"github.com/bboxx/overwatch/worker"
	"github.com/spf13/cobra"
)

// Update command
var Update = &cobra.Command{
	Use:   "update-boards",
	Short: "Reconcile publisher dashboards with the full test catalog",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig(cmd)

		w := worker.New(cfg, dispatch.RoleUpdater, nil, nil)
		if err := w.UpdateDashboards(context.Background()); err != nil {
			die("Error updating dashboards: %s", err)
		}
	},
}
