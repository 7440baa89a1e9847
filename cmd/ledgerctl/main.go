// Command ledgerctl runs ledger maintenance tasks against the database:
// party reconciliation, order recomputation and payment status refresh.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
