package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kfenwick/purrsuit/internal/config"
	"github.com/kfenwick/purrsuit/internal/device"
	"github.com/kfenwick/purrsuit/internal/engine"
	"github.com/kfenwick/purrsuit/internal/pattern"
	"github.com/kfenwick/purrsuit/internal/reactive"
	"github.com/kfenwick/purrsuit/internal/tracker"
)

// newPlayCmd creates and configures the `play` command.
func newPlayCmd() *cobra.Command {
	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Starts a continuous laser play session on the connected device",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their corresponding Viper keys so command-line
			// flags correctly override values from the config file and
			// environment variables.
			for key, flag := range map[string]string{
				"engine.pattern":         "pattern",
				"engine.change_interval": "interval",
				"engine.intensity":       "intensity",
				"engine.time_unit_ms":    "time-unit",
				"engine.seed":            "seed",
				"tracker.enabled":        "track",
				"device.serial":          "serial",
			} {
				if err := appViper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := appLogger

			// Re-unmarshal the config. Now that flags are bound in PreRunE,
			// Viper applies the overrides with the right precedence.
			cfg, err := config.NewConfigFromViper(appViper)
			if err != nil {
				return err
			}

			kind, err := pattern.ParseKind(cfg.Engine.Pattern)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			adb := device.NewADB(cfg.Device.ADBPath, cfg.Device.Serial, logger.Named("adb"))

			eng, err := engine.New(ctx, adb, tracker.NullDetector{}, engine.Params{
				SafeZone: engine.SafeZone{
					MinX: cfg.Engine.SafeZone.MinX,
					MaxX: cfg.Engine.SafeZone.MaxX,
					MinY: cfg.Engine.SafeZone.MinY,
					MaxY: cfg.Engine.SafeZone.MaxY,
				},
				EnforceSafeZone: cfg.Engine.EnforceSafeZone,
				TimeUnit:        time.Duration(cfg.Engine.TimeUnitMs) * time.Millisecond,
				VerboseSafety:   cfg.Engine.VerboseSafety,
				MaxTapFailures:  cfg.Engine.MaxTapFailures,
				Tracker: tracker.Config{
					Interval:            cfg.Tracker.Interval,
					ConfidenceThreshold: cfg.Tracker.ConfidenceThreshold,
				},
				Reactive: reactive.Config{
					LeadDistance:  cfg.Reactive.LeadDistance,
					TeaseDistance: cfg.Reactive.TeaseDistance,
				},
				Seed: cfg.Engine.Seed,
			}, logger.Named("engine"))
			if err != nil {
				return fmt.Errorf("failed to initialize engine: %w", err)
			}

			if cfg.Tracker.Enabled {
				eng.EnableTracking(true)
				defer eng.EnableTracking(false)
			}

			logger.Info("starting play session",
				zap.Stringer("pattern", kind),
				zap.Duration("change_interval", cfg.Engine.ChangeInterval),
				zap.Float64("intensity", cfg.Engine.Intensity),
				zap.Bool("tracking", cfg.Tracker.Enabled))

			if err := eng.StartPattern(kind, cfg.Engine.ChangeInterval, cfg.Engine.Intensity); err != nil {
				return err
			}

			// Block until the session aborts on its own or a signal arrives.
			err = eng.Wait(ctx)
			if errors.Is(err, context.Canceled) {
				logger.Info("interrupt received, stopping session")
				err = nil
			}
			if stopErr := eng.StopPattern(); stopErr != nil {
				return stopErr
			}
			return err
		},
	}

	playCmd.Flags().StringP("pattern", "p", "kitty", "Primary pattern to play (see 'purrsuit patterns'). (Overrides config/env)")
	playCmd.Flags().DurationP("interval", "i", 60*time.Second, "Spacing between pattern variation decisions. (Overrides config/env)")
	playCmd.Flags().Float64("intensity", 0.5, "Play intensity in (0,1]; scales reach and cadence. (Overrides config/env)")
	playCmd.Flags().Int("time-unit", 1000, "Milliseconds one pattern wait unit represents. (Overrides config/env)")
	playCmd.Flags().Int64("seed", 0, "Random seed for reproducible sessions; 0 seeds from the clock.")
	playCmd.Flags().Bool("track", false, "Enable the background subject tracker and reactive patterns.")
	playCmd.Flags().StringP("serial", "s", "", "Device serial when several devices are attached.")

	return playCmd
}

func init() {
	rootCmd.AddCommand(newPlayCmd())
}
