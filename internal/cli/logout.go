package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonic-ru/zbxdash/internal/app"
	"github.com/sonic-ru/zbxdash/internal/ui"
)

var logoutCmd = &cobra.Command{
	Use:   "logout [name-or-id]",
	Short: "Drop the cached session for a server",
	Long: `Log out from a server, invalidating its session token remotely.

Without an argument the selected server is logged out. Servers using
an API token have no session and are a no-op.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			return logoutCommand(ctx, a, arg)
		})
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func logoutCommand(ctx context.Context, a *app.App, arg string) error {
	var id int64
	var name string

	if arg == "" {
		st, err := a.DashboardState(ctx)
		if err != nil {
			return err
		}
		if st.SelectedServerID == 0 {
			fmt.Println("No server selected, nothing to log out from.")
			return nil
		}
		sv, err := a.GetServer(ctx, st.SelectedServerID)
		if err != nil {
			return err
		}
		id, name = sv.ID, sv.Name
	} else {
		sv, err := resolveServer(ctx, a, arg)
		if err != nil {
			return err
		}
		id, name = sv.ID, sv.Name
	}

	if err := a.Logout(ctx, id); err != nil {
		return err
	}
	fmt.Printf("%s Logged out from '%s'\n", ui.SymbolSuccess, name)
	return nil
}
