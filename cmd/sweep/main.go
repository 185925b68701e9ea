package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/qs3c/hms_go_server/config"
	"github.com/qs3c/hms_go_server/internal/app"
	"github.com/qs3c/hms_go_server/internal/database"
	"github.com/qs3c/hms_go_server/internal/pkg/cron"
	"github.com/qs3c/hms_go_server/internal/pkg/logger"
)

var (
	configPath string
	timeout    time.Duration
	listOnly   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sweep <name>",
		Short: "Run one maintenance sweep and exit",
		Long: `Run a single background sweep (expire-bookings, expire-event-bookings, auto-checkout,
checkout-reminders, auto-renewals, expiration-warnings) once, outside the worker schedule.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 5*time.Minute, "Maximum run time")
	rootCmd.Flags().BoolVarP(&listOnly, "list", "l", false, "List available sweeps")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	a, err := app.New(cfg, db, rdb)
	if err != nil {
		return err
	}

	// 只注册不启动，RunNow 同步执行
	scheduler, err := cron.NewService(cfg.Scheduler.Timezone, timeout)
	if err != nil {
		return err
	}
	if err := a.Sweeps().Register(scheduler, &cfg.Scheduler); err != nil {
		return err
	}

	if listOnly || len(args) == 0 {
		for _, name := range scheduler.JobNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		if len(args) == 0 && !listOnly {
			return fmt.Errorf("sweep name required")
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	start := time.Now()
	n, err := scheduler.RunNow(ctx, args[0])
	if err != nil {
		return fmt.Errorf("sweep %s: %w", args[0], err)
	}
	logger.Info("sweep finished", "job", args[0], "count", n, "duration", time.Since(start))
	return nil
}
