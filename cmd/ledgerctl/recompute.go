package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"orderledger/internal/app"
	"orderledger/internal/core/id"
	"orderledger/internal/domain/orders"
)

func newRecomputeCmd(opts *rootOptions) *cobra.Command {
	var (
		orderArg string
		kindArg  string
	)

	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Re-derive one order's summary from its deliveries and payments",
		Example: `  ledgerctl recompute --kind sales --order 0190f3a2-...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := orders.Kind(kindArg)
			if !kind.Valid() {
				return fmt.Errorf("--kind must be %s or %s", orders.KindSales, orders.KindSupply)
			}
			orderID, err := id.Parse(orderArg)
			if err != nil {
				return fmt.Errorf("invalid --order: %w", err)
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				svc, err := a.Orders(kind)
				if err != nil {
					return err
				}
				o, err := svc.RecomputeAndSave(ctx, orderID)
				if err != nil {
					return err
				}
				return printOrder(cmd.OutOrStdout(), opts.output, o)
			})
		},
	}

	cmd.Flags().StringVar(&orderArg, "order", "", "Order ID")
	cmd.Flags().StringVar(&kindArg, "kind", "", "Order kind: sales or supply")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}
