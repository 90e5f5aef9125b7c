package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	ctxPkg "github.com/yeisme/moments/pkg/context"
	"github.com/yeisme/moments/pkg/internal/service"
	"github.com/yeisme/moments/pkg/internal/storage"
)

var (
	ledgerLimit  int
	ledgerOffset int

	mediaCmd = &cobra.Command{
		Use:   "media",
		Short: "inspect and clean up media records",
	}

	mediaInfoCmd = &cobra.Command{
		Use:   "info <key>",
		Short: "print the persisted media record",
		Args:  cobra.ExactArgs(1),
		RunE: withStorage(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			svc, err := service.NewMediaService(ctx)
			if err != nil {
				return err
			}

			raw, err := svc.Info(ctx, args[0])
			if err != nil {
				return err
			}

			b, err := json.MarshalIndent(json.RawMessage(raw), "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		}),
	}

	mediaListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list the upload ledger, newest first",
		Aliases: []string{"list"},
		RunE: withStorage(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			ledger, err := service.NewLedgerService(ctx)
			if err != nil {
				return err
			}

			entries, err := ledger.List(ctx, ledgerLimit, ledgerOffset)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tKIND\tSIZE\tTHUMB\tSTORED AT\tFILE NAME")

			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%d\t%t\t%s\t%s\n", e.Key, e.Kind, e.FileSize, e.HasThumbnail,
					time.UnixMilli(e.StoredAt).Format(time.DateTime), e.FileName)
			}

			return w.Flush()
		}),
	}

	mediaRemoveCmd = &cobra.Command{
		Use:     "rm <key>",
		Short:   "delete a media record and its ledger row (provider copy is kept)",
		Aliases: []string{"remove"},
		Args:    cobra.ExactArgs(1),
		RunE: withStorage(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			svc, err := service.NewMediaService(ctx)
			if err != nil {
				return err
			}

			if err := svc.Remove(ctx, args[0]); err != nil {
				return err
			}

			if ledger, err := service.NewLedgerService(ctx); err == nil {
				if err := ledger.Forget(ctx, args[0]); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "removed", args[0])

			return nil
		}),
	}

	mediaReconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "back-fill ledger rows for media records missing from it",
		RunE: withStorage(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			ledger, err := service.NewLedgerService(ctx)
			if err != nil {
				return err
			}

			res, err := ledger.Reconcile(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, added %d, skipped %d\n", res.Scanned, res.Added, res.Skipped)

			return nil
		}),
	}
)

type storageRunE func(ctx context.Context, cmd *cobra.Command, args []string) error

// withStorage 加载配置并打开存储，命令结束后关闭.
func withStorage(run storageRunE) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		mgr, err := storage.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		defer func() {
			err = errors.Join(err, mgr.Close())
		}()

		return run(ctxPkg.WithStorageManager(cmd.Context(), mgr), cmd, args)
	}
}

// registerMediaCommands 注册媒体运维命令.
func registerMediaCommands() {
	mediaListCmd.Flags().IntVarP(&ledgerLimit, "limit", "n", service.DefaultLedgerPageSize, "max rows")
	mediaListCmd.Flags().IntVar(&ledgerOffset, "offset", 0, "rows to skip")

	mediaCmd.AddCommand(mediaInfoCmd, mediaListCmd, mediaRemoveCmd, mediaReconcileCmd)
	rootCmd.AddCommand(mediaCmd)
}
