package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/bboxx/overwatch/api"
	"github.com/bboxx/overwatch/client"
	"github.com/bboxx/overwatch/dispatch"
	"github.com/bboxx/overwatch/internal/cmdutil"
	"github.com/bboxx/overwatch/internal/scheduler"
	"github.com/bboxx/overwatch/log"
	"github.com/bboxx/overwatch/publisher/prometheus"
	"github.com/bboxx/overwatch/server"
	"github.com/bboxx/overwatch/store"
	"github.com/bboxx/overwatch/worker"
	"github.com/spf13/cobra"

	// Load fetcher and store drivers
	_ "github.com/bboxx/overwatch/fetcher/postgres"
	_ "github.com/bboxx/overwatch/store/leveldb"
	_ "github.com/bboxx/overwatch/store/memory"
)

func init() {
	Server.Flags().Bool("debug", false, "Expose a debug profile endpoint at /debug/pprof")
}

// Server command
var Server = &cobra.Command{
	Use:   "server",
	Short: "Start a long running overwatch worker server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig(cmd)

		st, err := store.New(cfg.StoreURI)
		if err != nil {
			log.Error("could not initialize results store").String("error", err.Error()).Log()
			os.Exit(1)
		}

		role := dispatch.Role(cfg.Server.Role)
		if role == "" {
			role = dispatch.RoleMaster
		}

		// Masters dispatch remotely when a worker url is configured,
		// otherwise they invoke themselves in process.
		var invoker dispatch.Invoker
		if cfg.Run.WorkerURL != "" {
			c, err := client.New(client.Config{
				URL:              cfg.Run.WorkerURL,
				TimeBetweenCalls: cfg.Run.TimeBetweenCalls,
			})
			if err != nil {
				log.Error("could not create worker client").String("error", err.Error()).Log()
				os.Exit(1)
			}
			invoker = c
		}

		w := worker.New(cfg, role, invoker, st)

		srv, err := server.New(cfg.Server, w, st)
		if err != nil {
			log.Error("failed to create overwatch server").String("error", err.Error()).Log()
			os.Exit(1)
		}

		p, err := prometheus.New(cfg.Publishers.Prometheus, srv.Router())
		if err != nil {
			log.Error("failed to create prometheus publisher").String("error", err.Error()).Log()
			os.Exit(1)
		}
		w.AddPublisher(p)

		if cmdutil.GetFlagBool(cmd, "debug") {
			log.Info("adding debug api routes for runtime profiling data").Log()
			api.AddDebugRoutes(srv)
		}

		api.AddAllRoutes(srv)

		sched := scheduler.New()
		if cfg.Run.Schedule != "" && role == dispatch.RoleMaster {
			err = sched.AddTaskFunc("master", cfg.Run.Schedule, func() {
				if err := w.RunMaster(context.Background(), 0); err != nil {
					log.Error("scheduled catalog run failed").String("error", err.Error()).Log()
				}
			})
			if err != nil {
				log.Error("failed to schedule catalog runs").String("error", err.Error()).Log()
				os.Exit(1)
			}
			sched.Start()
		}

		go srv.Start()

		signalCh := make(chan os.Signal, 1)
		signal.Notify(signalCh, os.Interrupt)

		log.Info("overwatch server started").
			String("role", string(role)).
			String("address", cfg.Server.ListenAddress).Log()
		<-signalCh

		<-sched.Stop().Done()

		if err = srv.Close(context.Background()); err != nil {
			log.Info("overwatch server stopped").String("error", err.Error()).Log()
			os.Exit(1)
		}

		log.Info("overwatch server stopped").Log()
	},
}
