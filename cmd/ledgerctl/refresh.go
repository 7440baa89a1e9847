package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"orderledger/internal/app"
	"orderledger/internal/domain/orders"
)

func newRefreshStatusesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-statuses",
		Short: "Move aging payment statuses forward on every unpaid order",
		Long: `Payment status depends on the age of the last delivery, so an unpaid
order can become overdue or critical without any write. This command
recomputes every unpaid sales and supply order and reports how many changed.
The worker runs the same job on WORKER_STATUS_REFRESH_INTERVAL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				counts := make([]refreshCount, 0, 2)
				for _, kind := range []orders.Kind{orders.KindSales, orders.KindSupply} {
					svc, err := a.Orders(kind)
					if err != nil {
						return err
					}
					n, err := svc.RefreshStatuses(ctx)
					if err != nil {
						return fmt.Errorf("refresh %s orders: %w", kind, err)
					}
					counts = append(counts, refreshCount{Kind: kind, Changed: n})
				}
				return printRefresh(cmd.OutOrStdout(), opts.output, counts)
			})
		},
	}
}
