// Package cli implements the zbxdash command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sonic-ru/zbxdash/internal/app"
	"github.com/sonic-ru/zbxdash/internal/config"
	"github.com/sonic-ru/zbxdash/internal/logger"
)

// configFlag holds the --config persistent flag value.
var configFlag string

// rootCmd is the base command all subcommands hang off.
var rootCmd = &cobra.Command{
	Use:   "zbxdash",
	Short: "Zabbix problem dashboard for the terminal",
	Long: `zbxdash shows active problems from one or more Zabbix servers.

Add a server, select it, and fetch:

  zbxdash server add
  zbxdash select
  zbxdash fetch`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file")
}

// Execute runs the command tree and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the effective config for the current invocation.
func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(configFlag)
}

// openApp builds the application facade. Callers must Close it.
func openApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger.NewEnvLogger("zbxdash"))
}
