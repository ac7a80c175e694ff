package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"inventory-engine/pkg/container"
)

func newABCCommand() *cobra.Command {
	var (
		site   string
		policy string
		cache  bool
	)

	cmd := &cobra.Command{
		Use:   "abc",
		Short: "Classify a site's items by movement velocity",
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := uuid.Parse(site)
			if err != nil {
				return fmt.Errorf("--site: %w", err)
			}

			c, err := container.NewContainer("ledgerctl")
			if err != nil {
				return err
			}
			defer c.Cleanup()

			abc, err := c.SlottingService.PerformABCAnalysis(cmd.Context(), siteID, policy)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "site %s, policy %s, window %d days since %s\n",
				abc.SiteID, abc.Policy, abc.WindowDays, abc.Since.Format("2006-01-02"))

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CLASS\tSKU\tMOVEMENTS\tCATEGORY")
			for _, it := range abc.Items {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", it.Class, it.SKU, it.Movements, it.Category)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if cache {
				if err := c.VelocityCache.Store(cmd.Context(), abc); err != nil {
					return fmt.Errorf("cache velocity classes: %w", err)
				}
				fmt.Fprintln(out, "velocity classes cached")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "site id (required)")
	cmd.Flags().StringVar(&policy, "policy", "", "threshold or percentile (default from tuning)")
	cmd.Flags().BoolVar(&cache, "cache", false, "store the classes for putaway VELOCITY")
	_ = cmd.MarkFlagRequired("site")

	return cmd
}
