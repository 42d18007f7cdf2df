package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/logvault/app"
	"github.com/kilianp07/logvault/core/backup"
)

var backupAll bool

var backupCmd = &cobra.Command{
	Use:   "backup [category]",
	Short: "Copy a category's data folder to its backup folder",
	Args: func(cmd *cobra.Command, args []string) error {
		if backupAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <category>",
	Short: "Copy a category's backup folder back over its data folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

var dueAt string

var dueCmd = &cobra.Command{
	Use:   "due <category>",
	Short: "Report whether a category's backup is due at a given minute",
	Args:  cobra.ExactArgs(1),
	RunE:  runDue,
}

func init() {
	backupCmd.Flags().BoolVar(&backupAll, "all", false, "back up every category with a backup folder")
	dueCmd.Flags().StringVar(&dueAt, "at", "", `local time "2006-01-02 15:04" (default now)`)
	rootCmd.AddCommand(backupCmd, restoreCmd, dueCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	return withService(cmd.Context(), func(svc *app.Service) error {
		if !backupAll {
			cfg, err := categoryConfig(svc, args[0])
			if err != nil {
				return err
			}
			return svc.Backup.PerformBackup(cmd.Context(), cfg)
		}
		g, ctx := errgroup.WithContext(cmd.Context())
		for _, c := range svc.Registry.Categories() {
			cfg, _ := svc.Registry.GetConfig(c)
			if cfg.BackupFolder == "" {
				continue
			}
			g.Go(func() error { return svc.Backup.PerformBackup(ctx, cfg) })
		}
		return g.Wait()
	})
}

func runRestore(cmd *cobra.Command, args []string) error {
	return withService(cmd.Context(), func(svc *app.Service) error {
		cfg, err := categoryConfig(svc, args[0])
		if err != nil {
			return err
		}
		return svc.Backup.PerformRestore(cmd.Context(), cfg)
	})
}

func runDue(cmd *cobra.Command, args []string) error {
	at := time.Now()
	if dueAt != "" {
		t, err := time.ParseInLocation("2006-01-02 15:04", dueAt, time.Local)
		if err != nil {
			return fmt.Errorf("--at: %w", err)
		}
		at = t
	}
	return withService(cmd.Context(), func(svc *app.Service) error {
		cfg, err := categoryConfig(svc, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s at %s: due=%t\n",
			cfg.Category, backup.ScheduleFor(cfg).Kind(), at.Format("2006-01-02 15:04"), backup.IsBackupDue(cfg, at))
		return err
	})
}
