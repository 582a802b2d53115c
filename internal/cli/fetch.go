package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sonic-ru/zbxdash/internal/aggregate"
	"github.com/sonic-ru/zbxdash/internal/app"
	"github.com/sonic-ru/zbxdash/internal/ui"
)

var fetchServerFlag string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch active problems from the selected server",
	Long: `Fetch and display the active problems of the selected server.

The acknowledged/maintenance filters set with 'zbxdash filter' apply.

Examples:
  zbxdash fetch
  zbxdash fetch --server prod`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return fetchProblems(ctx, a, fetchServerFlag)
		})
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchServerFlag, "server", "", "fetch from this server instead of the selection")
	rootCmd.AddCommand(fetchCmd)
}

func fetchProblems(ctx context.Context, a *app.App, serverArg string) error {
	var records []aggregate.Record
	var err error

	if serverArg != "" {
		sv, resErr := resolveServer(ctx, a, serverArg)
		if resErr != nil {
			return resErr
		}
		records, err = a.FetchProblemsFor(ctx, sv.ID)
	} else {
		records, err = a.FetchProblems(ctx)
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		ok := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
		fmt.Printf("%s No active problems\n", ok.Render(ui.SymbolSuccess))
		return nil
	}

	fmt.Println(renderProblems(records))
	fmt.Printf("%d problem(s)\n", len(records))
	return nil
}

// renderProblems renders one line per problem with a severity-colored
// host column.
func renderProblems(records []aggregate.Record) string {
	dimStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	ackStyle := lipgloss.NewStyle().Foreground(ui.ColorInfo)

	header := lipgloss.NewStyle().Bold(true).Render(
		ui.PadRight("SEVERITY", 16) + ui.PadRight("HOST", 22) + ui.PadRight("PROBLEM", 40) + "AGE")

	out := header + "\n"
	for _, r := range records {
		sevStyle := ui.SeverityStyle(r.SeverityClass)

		line := ui.PadRight(sevStyle.Render(r.SeverityClass.Label()), 16) +
			ui.PadRight(sevStyle.Render(r.HostName), 22) +
			ui.PadRight(r.Name, 40) +
			dimStyle.Render(r.Age)
		if r.Acknowledged {
			line += ackStyle.Render(" (ack)")
		}
		if r.InMaintenance {
			line += dimStyle.Render(" (maintenance)")
		}
		out += line + "\n"
	}
	return out
}
