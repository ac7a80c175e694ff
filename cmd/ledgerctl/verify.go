package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"inventory-engine/pkg/container"
)

func newVerifyCommand() *cobra.Command {
	var upload bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay the ledger and report balances that drifted from it",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container.NewContainer("ledgerctl")
			if err != nil {
				return err
			}
			defer c.Cleanup()

			report, err := c.LedgerService.Verify(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if upload {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				url, err := archive(cmd.Context(), c.Config.Archive, "verify", "json", "application/json", data)
				if err != nil {
					return fmt.Errorf("archive report: %w", err)
				}
				fmt.Fprintf(out, "report archived at %s\n", url)
			}

			fmt.Fprintf(out, "entries: %d, balances: %d, drifts: %d\n", report.Entries, report.Balances, len(report.Drifts))
			if len(report.Drifts) == 0 {
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ITEM\tLOCATION\tSTORED\tREPLAYED")
			for _, d := range report.Drifts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ItemID, d.LocationID, d.Stored, d.Replayed)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return fmt.Errorf("%d balance rows differ from the ledger", len(report.Drifts))
		},
	}

	cmd.Flags().BoolVar(&upload, "upload", false, "archive the JSON report in the object store")
	return cmd
}
