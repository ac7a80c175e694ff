package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inventory-engine/migrations"
	"inventory-engine/pkg/container"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := container.ConnectDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := migrations.NewMigrator(db.Pool)
			if err != nil {
				return err
			}
			applied, err := m.Up(cmd.Context())
			for _, mig := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %04d %s\n", mig.Version, mig.Description)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := container.ConnectDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := migrations.NewMigrator(db.Pool)
			if err != nil {
				return err
			}
			mig, err := m.Down(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %04d %s\n", mig.Version, mig.Description)
			return nil
		},
	})

	return cmd
}
