package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/logvault/app"
	"github.com/kilianp07/logvault/config"
	"github.com/kilianp07/logvault/core/category"
	"github.com/kilianp07/logvault/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "logvault",
	Short:        "Category log writer with rotation, retention and backups",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// withService loads the configuration, builds the service, runs fn and
// closes the service, draining any queued entries.
func withService(ctx context.Context, fn func(*app.Service) error) (err error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			logger.New("main").Errorf("service close: %v", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()
	return fn(svc)
}

// categoryConfig returns the active configuration of the category named s.
func categoryConfig(svc *app.Service, s string) (category.Config, error) {
	c, err := category.Parse(s)
	if err != nil {
		return category.Config{}, err
	}
	cfg, ok := svc.Registry.GetConfig(c)
	if !ok {
		return category.Config{}, fmt.Errorf("category %s is not configured", c)
	}
	return cfg, nil
}
