package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"orderledger/internal/app"
	"orderledger/internal/core/id"
	"orderledger/internal/domain/orders"
	"orderledger/internal/domain/parties"
)

func newReconcileCmd(opts *rootOptions) *cobra.Command {
	var (
		partyArg string
		kindArg  string
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild party totals from their orders",
		Long: `Recompute every live order of a party and overwrite the party's
total_paid and amount_due with the sum of its orders.

Without --party every party of the given kind is reconciled.`,
		Example: `  # Reconcile one customer
  ledgerctl reconcile --kind customer --party 0190f3a2-...

  # Reconcile all suppliers and print JSON
  ledgerctl reconcile --kind supplier -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := parties.Kind(kindArg)
			if !kind.Valid() {
				return fmt.Errorf("--kind must be %s or %s", parties.KindCustomer, parties.KindSupplier)
			}

			var partyID id.ID
			if partyArg != "" {
				var err error
				if partyID, err = id.Parse(partyArg); err != nil {
					return fmt.Errorf("invalid --party: %w", err)
				}
			}

			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				svc, err := a.OrdersFor(kind)
				if err != nil {
					return err
				}

				var reports []orders.ReconcileReport
				if partyArg != "" {
					r, err := svc.Reconcile(ctx, partyID)
					if err != nil {
						return err
					}
					reports = append(reports, *r)
				} else {
					// partial results are still printed on failure
					reports, err = svc.ReconcileAll(ctx)
					if perr := printReconcile(cmd.OutOrStdout(), opts.output, reports); perr != nil {
						return perr
					}
					return err
				}
				return printReconcile(cmd.OutOrStdout(), opts.output, reports)
			})
		},
	}

	cmd.Flags().StringVar(&partyArg, "party", "", "Party ID (default: all parties of --kind)")
	cmd.Flags().StringVar(&kindArg, "kind", "", "Party kind: customer or supplier")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}
