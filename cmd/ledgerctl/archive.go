package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/spf13/cobra"

	"inventory-engine/internal/config"
	"inventory-engine/internal/infrastructure/storage"
)

// archiveKey builds <prefix>/<kind>/<YYYY>/<MM>/<kind>-<timestamp>.<ext>.
func archiveKey(prefix, kind, ext string, at time.Time) string {
	at = at.UTC()
	return path.Join(prefix, kind, at.Format("2006"), at.Format("01"),
		fmt.Sprintf("%s-%s.%s", kind, at.Format("20060102-150405"), ext))
}

func archive(ctx context.Context, cfg config.ArchiveConfig, kind, ext, contentType string, data []byte) (string, error) {
	store, err := storage.NewMinIOStorage(ctx, cfg)
	if err != nil {
		return "", err
	}
	return store.Upload(ctx, archiveKey(cfg.Prefix, kind, ext, time.Now()), data, contentType)
}

func newArchiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Browse exported workbooks and verify reports in the object store",
	}

	var kind string
	list := &cobra.Command{
		Use:   "ls",
		Short: "List archived objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openArchive(cmd.Context())
			if err != nil {
				return err
			}
			keys, err := store.List(cmd.Context(), path.Join(cfg.Prefix, kind)+"/")
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
	list.Flags().StringVar(&kind, "kind", "", "balances or verify")

	var out string
	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Download one archived object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openArchive(cmd.Context())
			if err != nil {
				return err
			}
			data, err := store.Download(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = path.Base(args[0])
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(data), out)
			return nil
		},
	}
	get.Flags().StringVarP(&out, "out", "o", "", "destination path (defaults to the object name)")

	remove := &cobra.Command{
		Use:   "rm <key>...",
		Short: "Delete archived objects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openArchive(cmd.Context())
			if err != nil {
				return err
			}
			for _, key := range args {
				if err := store.Delete(cmd.Context(), key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
			}
			return nil
		},
	}

	cmd.AddCommand(list, get, remove)
	return cmd
}

// openArchive needs only the archive settings, not the database.
func openArchive(ctx context.Context) (*storage.MinIOStorage, config.ArchiveConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.ArchiveConfig{}, err
	}
	store, err := storage.NewMinIOStorage(ctx, cfg.Archive)
	if err != nil {
		return nil, config.ArchiveConfig{}, err
	}
	return store, cfg.Archive, nil
}
