package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"orderledger/internal/domain/orders"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

type refreshCount struct {
	Kind    orders.Kind `json:"kind"`
	Changed int         `json:"changed"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReconcile(w io.Writer, format string, reports []orders.ReconcileReport) error {
	if format == outputJSON {
		if reports == nil {
			reports = []orders.ReconcileReport{}
		}
		return writeJSON(w, reports)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTY\tKIND\tORDERS\tREPAIRED\tPAID\tDUE\tDRIFT PAID\tDRIFT DUE")
	drifted := 0
	for _, r := range reports {
		if r.HasDrift() {
			drifted++
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			r.PartyID, r.Kind, r.OrdersChecked, r.OrdersRepaired,
			r.After.Paid.StringFixed(2), r.After.Due.StringFixed(2),
			r.Drift.Paid.StringFixed(2), r.Drift.Due.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d parties reconciled, %d with drift\n", len(reports), drifted)
	return err
}

func printOrder(w io.Writer, format string, o *orders.Order) error {
	if format == outputJSON {
		return writeJSON(w, o)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Order\t%s-%d\n", o.Kind, o.OrderCode)
	fmt.Fprintf(tw, "ID\t%s\n", o.ID)
	fmt.Fprintf(tw, "Party\t%s\n", o.PartyID)
	fmt.Fprintf(tw, "Order value\t%s %s\n", o.OrderValue.StringFixed(2), o.Currency)
	fmt.Fprintf(tw, "Total paid\t%s %s\n", o.TotalPaid.StringFixed(2), o.Currency)
	fmt.Fprintf(tw, "Amount due\t%s %s\n", o.AmountDue.StringFixed(2), o.Currency)
	fmt.Fprintf(tw, "Payment status\t%s\n", o.PaymentStatus)
	fmt.Fprintf(tw, "Order status\t%s\n", o.OrderStatus)
	if o.LastDeliveryDate != nil {
		fmt.Fprintf(tw, "Last delivery\t%s\n", o.LastDeliveryDate.Format("2006-01-02"))
	}
	return tw.Flush()
}

func printRefresh(w io.Writer, format string, counts []refreshCount) error {
	if format == outputJSON {
		return writeJSON(w, counts)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCHANGED")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%d\n", c.Kind, c.Changed)
	}
	return tw.Flush()
}
