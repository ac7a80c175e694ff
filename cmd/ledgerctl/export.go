package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"inventory-engine/pkg/container"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func newExportCommand() *cobra.Command {
	var (
		item     string
		location string
		out      string
		upload   bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export on-hand balances as an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, err := optionalID("--item", item)
			if err != nil {
				return err
			}
			locationID, err := optionalID("--location", location)
			if err != nil {
				return err
			}
			if out == "" && !upload {
				return fmt.Errorf("set --out, --upload or both")
			}

			c, err := container.NewContainer("ledgerctl")
			if err != nil {
				return err
			}
			defer c.Cleanup()

			file, n, err := c.BalanceExporter.Export(cmd.Context(), itemID, locationID)
			if err != nil {
				return err
			}
			defer file.Close()

			buf, err := file.WriteToBuffer()
			if err != nil {
				return fmt.Errorf("render workbook: %w", err)
			}

			if out != "" {
				if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", n, out)
			}
			if upload {
				url, err := archive(cmd.Context(), c.Config.Archive, "balances", "xlsx", xlsxContentType, buf.Bytes())
				if err != nil {
					return fmt.Errorf("archive workbook: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "archived %d rows at %s\n", n, url)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&item, "item", "", "only this item id")
	cmd.Flags().StringVar(&location, "location", "", "only this location id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the workbook to this path")
	cmd.Flags().BoolVar(&upload, "upload", false, "archive the workbook in the object store")

	return cmd
}

func optionalID(flag, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", flag, err)
	}
	return &id, nil
}
