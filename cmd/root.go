package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sambhavthakkar/PulseDrive/app"
	"github.com/sambhavthakkar/PulseDrive/config"
	"github.com/sambhavthakkar/PulseDrive/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "pulsedrive",
	Short:        "Maintenance slot scheduling service",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI. Commands see a context cancelled on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func run(cmd *cobra.Command, args []string) error {
	return withService(cmd, func(svc *app.Service) error {
		return svc.Run(cmd.Context())
	})
}

// loadConfig reads the configuration file. The default path may be absent,
// in which case defaults and environment overrides apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func withService(cmd *cobra.Command, fn func(*app.Service) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(svc)
}
