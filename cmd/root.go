/*Package cmd implements overwatch commands*/
package cmd

import (
	"fmt"
	"os"

	"github.com/bboxx/overwatch/config"
	"github.com/bboxx/overwatch/internal/cmdutil"
	"github.com/bboxx/overwatch/log"
	"github.com/spf13/cobra"
)

func init() {
	Root.PersistentFlags().String("log-level", "INFO", "log level")
	Root.PersistentFlags().String("config", "", "configuration file, defaults apply when omitted")
	Root.AddCommand(Master)
	Root.AddCommand(Slave)
	Root.AddCommand(Update)
	Root.AddCommand(Server)
	Root.AddCommand(Configure)
}

// Root command for overwatch
var Root = &cobra.Command{
	Use:   "overwatch",
	Short: "overwatch command line interface",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Init(cmdutil.GetFlagString(cmd, "log-level"))
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Usage()
	},
}

// readConfig loads the configuration file given by the persistent config
// flag, falling back to defaults when no file is given
func readConfig(cmd *cobra.Command) (c config.Config) {
	path := cmdutil.GetFlagString(cmd, "config")
	if path == "" {
		return config.DefaultConfig
	}

	c, err := config.Read(path)
	if err != nil {
		die("Error loading configuration: %s", err)
	}

	return c
}

func die(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}
