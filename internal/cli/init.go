package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sonic-ru/zbxdash/internal/config"
	"github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/sonic-ru/zbxdash/internal/ui"
)

var (
	initDataDirFlag  string
	initTimeoutFlag  string
	initInsecureFlag bool
	initForceFlag    bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the zbxdash config file",
	Long: `Initialize the zbxdash configuration.

Writes config.yaml with defaults into the data directory. Existing
config is left alone unless --force is given.

Examples:
  zbxdash init
  zbxdash init --data-dir ~/zbx --timeout 10s
  zbxdash init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand()
	},
}

func init() {
	initCmd.Flags().StringVar(&initDataDirFlag, "data-dir", "", "directory for durable state")
	initCmd.Flags().StringVar(&initTimeoutFlag, "timeout", "", "request timeout (e.g. 10s, 1m)")
	initCmd.Flags().BoolVar(&initInsecureFlag, "insecure", false, "skip TLS certificate verification")
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "overwrite existing config")

	rootCmd.AddCommand(initCmd)
}

func initCommand() error {
	cfg := config.DefaultConfig()
	if initDataDirFlag != "" {
		cfg.DataDir = initDataDirFlag
	}
	if initTimeoutFlag != "" {
		d, err := time.ParseDuration(initTimeoutFlag)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Invalid timeout: "+initTimeoutFlag,
				"Use a duration like 10s, 30s, or 1m")
		}
		cfg.RequestTimeout = d
	}
	cfg.InsecureSkipVerify = initInsecureFlag

	path := configFlag
	if path == "" {
		path = filepath.Join(cfg.DataDir, config.ConfigFileName)
	}

	if _, err := os.Stat(path); err == nil && !initForceFlag {
		return errors.New(errors.ErrConfig,
			"Config file already exists: "+path,
			"Use --force to overwrite it")
	}

	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Printf("%s Created %s\n", ui.SymbolSuccess, path)
	fmt.Println("\nNext: add a server with 'zbxdash server add'")
	return nil
}
