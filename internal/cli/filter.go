package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonic-ru/zbxdash/internal/app"
	"github.com/sonic-ru/zbxdash/internal/dashboard"
	"github.com/sonic-ru/zbxdash/internal/errors"
)

var (
	filterAckFlag   string
	filterMaintFlag string
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Show or change the problem filters",
	Long: `Show or change which problems 'zbxdash fetch' includes.

Filters persist across runs. Without flags the current filters are
printed.

Examples:
  zbxdash filter
  zbxdash filter --ack on
  zbxdash filter --ack off --maintenance on`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			return filterCommand(ctx, a)
		})
	},
}

func init() {
	filterCmd.Flags().StringVar(&filterAckFlag, "ack", "", "include acknowledged problems: on or off")
	filterCmd.Flags().StringVar(&filterMaintFlag, "maintenance", "", "include problems of hosts in maintenance: on or off")
	rootCmd.AddCommand(filterCmd)
}

func filterCommand(ctx context.Context, a *app.App) error {
	ch := dashboard.Change{}
	if filterAckFlag != "" {
		v, err := parseOnOff("--ack", filterAckFlag)
		if err != nil {
			return err
		}
		ch.ShowAcknowledged = &v
	}
	if filterMaintFlag != "" {
		v, err := parseOnOff("--maintenance", filterMaintFlag)
		if err != nil {
			return err
		}
		ch.ShowInMaintenance = &v
	}

	var st dashboard.State
	var err error
	if ch.ShowAcknowledged != nil || ch.ShowInMaintenance != nil {
		st, err = a.UpdateDashboard(ctx, ch)
	} else {
		st, err = a.DashboardState(ctx)
	}
	if err != nil {
		return err
	}

	fmt.Printf("acknowledged: %s\n", onOff(st.ShowAcknowledged))
	fmt.Printf("maintenance:  %s\n", onOff(st.ShowInMaintenance))
	return nil
}

func parseOnOff(flag, v string) (bool, error) {
	switch v {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, errors.New(errors.ErrConfig,
		fmt.Sprintf("Invalid value %q for %s", v, flag),
		"Use on or off")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
