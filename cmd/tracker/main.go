package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"pvp-tracker/internal/constants"
	fxmodules "pvp-tracker/internal/fx"
	"pvp-tracker/internal/service"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	root := &cobra.Command{
		Use:           "tracker",
		Short:         "Track a character's PvP bracket ratings over time",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newOnceCmd(), newStatsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll continuously on the configured interval",
		Run: func(cmd *cobra.Command, args []string) {
			fx.New(
				fxmodules.Module,
				fx.Invoke(runPoller),
			).Run()
		},
	}
}

func runPoller(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	poller *service.Poller,
	db *sql.DB,
	logger zerolog.Logger,
) {
	loopCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Msg("poll loop starting")
				if err := poller.Run(loopCtx); err != nil {
					// Storage failures end the process: a store that lost a
					// write is no longer a trustworthy diff baseline.
					logger.Error().Err(err).Msg("poll loop failed")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down")
			cancel()

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			logger.Info().Msg("stopped gracefully")
			return nil
		},
	})
}

func newOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run exactly one polling cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				poller *service.Poller
				db     *sql.DB
				logger zerolog.Logger
			)
			app := fx.New(
				fxmodules.Module,
				fx.NopLogger,
				fx.Populate(&poller, &db, &logger),
			)

			startCtx, cancel := context.WithTimeout(cmd.Context(), constants.ShutdownTimeout)
			defer cancel()
			if err := app.Start(startCtx); err != nil {
				return err
			}
			defer stopApp(app, db, logger)

			return poller.RunCycle(cmd.Context())
		},
	}
}

func newStatsCmd() *cobra.Command {
	var bracket string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print hour-of-day activity statistics and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				stats  *service.StatsService
				db     *sql.DB
				logger zerolog.Logger
			)
			app := fx.New(
				fxmodules.Module,
				fx.NopLogger,
				fx.Populate(&stats, &db, &logger),
			)

			startCtx, cancel := context.WithTimeout(cmd.Context(), constants.ShutdownTimeout)
			defer cancel()
			if err := app.Start(startCtx); err != nil {
				return err
			}
			defer stopApp(app, db, logger)

			buckets, err := stats.HourOfDay(cmd.Context(), bracket)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "HOUR\tPLAYED\tWON\tLOST\tRATING")
			for _, b := range buckets {
				fmt.Fprintf(w, "%02d:00\t%d\t%d\t%d\t%+d\n", b.Hour, b.Played, b.Won, b.Lost, b.RatingDelta)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&bracket, "bracket", "", "limit statistics to one bracket (e.g. 2v2)")
	return cmd
}

func stopApp(app *fx.App, db *sql.DB, logger zerolog.Logger) {
	if err := db.Close(); err != nil {
		logger.Warn().Err(err).Msg("error closing database connection")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}
