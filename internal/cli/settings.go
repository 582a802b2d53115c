package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonic-ru/zbxdash/internal/app"
	"github.com/sonic-ru/zbxdash/internal/dashboard"
	"github.com/sonic-ru/zbxdash/internal/ui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change application settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return settingsShow(ctx, a)
		})
	},
}

var settingsThemeCmd = &cobra.Command{
	Use:       "theme <light|dark|system>",
	Short:     "Set the color theme",
	ValidArgs: []string{"light", "dark", "system"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			theme, err := dashboard.ParseTheme(args[0])
			if err != nil {
				return err
			}
			if _, err := a.UpdateTheme(ctx, theme); err != nil {
				return err
			}
			fmt.Printf("%s Theme set to %s\n", ui.SymbolSuccess, theme)
			return nil
		})
	},
}

var settingsLanguageCmd = &cobra.Command{
	Use:   "language <name>",
	Short: "Set the display language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			if _, err := a.UpdateLanguage(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("%s Language set to %s\n", ui.SymbolSuccess, args[0])
			return nil
		})
	},
}

func init() {
	settingsCmd.AddCommand(settingsThemeCmd)
	settingsCmd.AddCommand(settingsLanguageCmd)
	rootCmd.AddCommand(settingsCmd)
}

func settingsShow(ctx context.Context, a *app.App) error {
	s, err := a.Settings(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("theme:    %s\n", s.Theme)
	fmt.Printf("language: %s\n", s.Language)
	return nil
}
