package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonic-ru/zbxdash/internal/app"
	"github.com/sonic-ru/zbxdash/internal/registry"
	"github.com/sonic-ru/zbxdash/internal/ui"
)

var selectCmd = &cobra.Command{
	Use:   "select [name-or-id]",
	Short: "Choose the active server",
	Long: `Select which server 'zbxdash fetch' talks to.

Without an argument a picker is shown.

Examples:
  zbxdash select
  zbxdash select prod
  zbxdash select 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			return selectServer(ctx, a, arg)
		})
	},
}

func init() {
	rootCmd.AddCommand(selectCmd)
}

func selectServer(ctx context.Context, a *app.App, arg string) error {
	var sv registry.Server
	var err error

	if arg == "" {
		sv, err = pickServer(ctx, a, "Select the active server")
	} else {
		sv, err = resolveServer(ctx, a, arg)
	}
	if err != nil {
		return err
	}

	if _, err := a.SelectServer(ctx, sv.ID); err != nil {
		return err
	}
	fmt.Printf("%s Selected '%s'\n", ui.SymbolSuccess, sv.Name)
	return nil
}
