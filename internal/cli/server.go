package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sonic-ru/zbxdash/internal/app"
	"github.com/sonic-ru/zbxdash/internal/errors"
	"github.com/sonic-ru/zbxdash/internal/registry"
	"github.com/sonic-ru/zbxdash/internal/ui"
)

var (
	serverNameFlag     string
	serverURLFlag      string
	serverAuthFlag     string
	serverUsernameFlag string
	serverPasswordFlag string
	serverAPIKeyFlag   string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage configured Zabbix servers",
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return serverList(ctx, a)
		})
	},
}

var serverAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a server",
	Long: `Add a Zabbix server to the registry.

Prompts interactively when run from a terminal. Non-interactive use
passes everything as flags.

Examples:
  zbxdash server add
  zbxdash server add --name prod --url https://zbx.example.com \
      --auth apikey --api-key SECRET`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return serverAdd(ctx, a)
		})
	},
}

var serverUpdateCmd = &cobra.Command{
	Use:   "update <name-or-id>",
	Short: "Update a server's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return serverUpdate(ctx, a, args[0])
		})
	},
}

var serverRemoveCmd = &cobra.Command{
	Use:   "remove [name-or-id]",
	Short: "Remove a server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			return serverRemove(ctx, a, arg)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{serverAddCmd, serverUpdateCmd} {
		c.Flags().StringVar(&serverNameFlag, "name", "", "display name")
		c.Flags().StringVar(&serverURLFlag, "url", "", "server base URL")
		c.Flags().StringVar(&serverAuthFlag, "auth", "", "auth mode: password or apikey")
		c.Flags().StringVar(&serverUsernameFlag, "username", "", "login username (password auth)")
		c.Flags().StringVar(&serverPasswordFlag, "password", "", "login password (password auth)")
		c.Flags().StringVar(&serverAPIKeyFlag, "api-key", "", "API token (apikey auth)")
	}

	serverCmd.AddCommand(serverListCmd)
	serverCmd.AddCommand(serverAddCmd)
	serverCmd.AddCommand(serverUpdateCmd)
	serverCmd.AddCommand(serverRemoveCmd)
	rootCmd.AddCommand(serverCmd)
}

// withApp opens the application, runs fn, and closes it.
func withApp(fn func(context.Context, *app.App) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}

// resolveServer accepts a numeric id or a display name.
func resolveServer(ctx context.Context, a *app.App, arg string) (registry.Server, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return a.GetServer(ctx, id)
	}
	return a.FindServer(ctx, arg)
}

func serverList(ctx context.Context, a *app.App) error {
	servers, err := a.ListServers(ctx)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		fmt.Println("No servers configured.")
		fmt.Println("\nAdd one with: zbxdash server add")
		return nil
	}

	st, err := a.DashboardState(ctx)
	if err != nil {
		return err
	}

	fmt.Println(renderServers(servers, st.SelectedServerID))
	return nil
}

// renderServers formats the registry as a table, marking the selected
// server.
func renderServers(servers []registry.Server, selectedID int64) string {
	columns := []ui.TableColumn{
		{Title: "ID", Width: 4},
		{Title: "NAME", Width: 20},
		{Title: "URL", Width: 36},
		{Title: "AUTH", Width: 10},
		{Title: "", Width: 10},
	}

	rows := make([][]string, len(servers))
	for i, sv := range servers {
		selected := ""
		if sv.ID == selectedID {
			selected = ui.SymbolSelected + " selected"
		}
		rows[i] = []string{
			strconv.FormatInt(sv.ID, 10),
			sv.Name,
			sv.URL,
			string(sv.AuthMode),
			selected,
		}
	}

	return ui.RenderSimpleTable(columns, rows)
}

func serverAdd(ctx context.Context, a *app.App) error {
	draft := draftFromFlags()

	if interactive() && (draft.Name == "" || draft.URL == "" || draft.AuthMode == "") {
		if err := promptServer(&draft); err != nil {
			return err
		}
	}

	sv, err := a.AddServer(ctx, draft)
	if err != nil {
		return err
	}

	fmt.Printf("%s Added server '%s' (id %d)\n", ui.SymbolSuccess, sv.Name, sv.ID)

	// First server becomes the selection so 'fetch' works right away.
	st, err := a.DashboardState(ctx)
	if err == nil && st.SelectedServerID == 0 {
		if _, err := a.SelectServer(ctx, sv.ID); err == nil {
			fmt.Printf("  Selected '%s' as the active server\n", sv.Name)
		}
	}
	return nil
}

func serverUpdate(ctx context.Context, a *app.App, arg string) error {
	sv, err := resolveServer(ctx, a, arg)
	if err != nil {
		return err
	}

	if serverNameFlag != "" {
		sv.Name = serverNameFlag
	}
	if serverURLFlag != "" {
		sv.URL = serverURLFlag
	}
	if serverAuthFlag != "" {
		sv.AuthMode = registry.AuthMode(serverAuthFlag)
	}
	if serverUsernameFlag != "" {
		sv.Username = serverUsernameFlag
	}
	if serverPasswordFlag != "" {
		sv.Password = serverPasswordFlag
	}
	if serverAPIKeyFlag != "" {
		sv.APIKey = serverAPIKeyFlag
	}

	if err := a.UpdateServer(ctx, sv); err != nil {
		return err
	}
	fmt.Printf("%s Updated server '%s'\n", ui.SymbolSuccess, sv.Name)
	return nil
}

func serverRemove(ctx context.Context, a *app.App, arg string) error {
	var sv registry.Server
	var err error

	if arg == "" {
		sv, err = pickServer(ctx, a, "Select server to remove")
	} else {
		sv, err = resolveServer(ctx, a, arg)
	}
	if err != nil {
		return err
	}

	if interactive() {
		var confirm bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Remove server '%s'?", sv.Name)).
					Description("Stored credentials for it are deleted").
					Value(&confirm),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't get your input",
				"Try again or use: zbxdash server remove <name>")
		}
		if !confirm {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := a.RemoveServer(ctx, sv.ID); err != nil {
		return err
	}
	fmt.Printf("%s Removed server '%s'\n", ui.SymbolSuccess, sv.Name)
	return nil
}

func draftFromFlags() registry.Server {
	return registry.Server{
		Name:     serverNameFlag,
		URL:      serverURLFlag,
		AuthMode: registry.AuthMode(serverAuthFlag),
		Username: serverUsernameFlag,
		Password: serverPasswordFlag,
		APIKey:   serverAPIKeyFlag,
	}
}

// interactive reports whether stdin is a terminal.
func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// promptServer fills the missing fields of draft interactively.
func promptServer(draft *registry.Server) error {
	mode := string(draft.AuthMode)
	if mode == "" {
		mode = string(registry.AuthPassword)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("How this server shows up in lists").
				Value(&draft.Name),
			huh.NewInput().
				Title("URL").
				Description("Base URL, e.g. https://zbx.example.com").
				Value(&draft.URL),
			huh.NewSelect[string]().
				Title("Authentication").
				Options(
					huh.NewOption("Username and password", string(registry.AuthPassword)),
					huh.NewOption("API token", string(registry.AuthAPIKey)),
				).
				Value(&mode),
		),
	)
	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't get your input",
			"Try again, or pass --name, --url and --auth as flags")
	}
	draft.AuthMode = registry.AuthMode(mode)

	var group *huh.Group
	if draft.AuthMode == registry.AuthAPIKey {
		group = huh.NewGroup(
			huh.NewInput().
				Title("API token").
				EchoMode(huh.EchoModePassword).
				Value(&draft.APIKey),
		)
	} else {
		group = huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&draft.Username),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&draft.Password),
		)
	}
	if err := huh.NewForm(group).Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't get your credentials",
			"Try again, or pass them as flags")
	}
	return nil
}

// pickServer shows an interactive server picker.
func pickServer(ctx context.Context, a *app.App, title string) (registry.Server, error) {
	servers, err := a.ListServers(ctx)
	if err != nil {
		return registry.Server{}, err
	}
	if len(servers) == 0 {
		return registry.Server{}, errors.New(errors.ErrConfig,
			"No servers configured",
			"Add one with 'zbxdash server add'")
	}
	if !interactive() {
		return registry.Server{}, errors.New(errors.ErrConfig,
			"No server named",
			"Pass a server name or id as the argument")
	}

	options := make([]huh.Option[int64], len(servers))
	for i, sv := range servers {
		options[i] = huh.NewOption(fmt.Sprintf("%s - %s", sv.Name, sv.URL), sv.ID)
	}

	var id int64
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().
				Title(title).
				Options(options...).
				Value(&id),
		),
	)
	if err := form.Run(); err != nil {
		return registry.Server{}, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't get your selection",
			"Try again with an explicit server name")
	}

	for _, sv := range servers {
		if sv.ID == id {
			return sv, nil
		}
	}
	return registry.Server{}, errors.New(errors.ErrConfig, "Server disappeared during selection", "")
}
