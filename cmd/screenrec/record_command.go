package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"screenrec/internal/capture"
	"screenrec/internal/config"
	"screenrec/internal/history"
	"screenrec/internal/preflight"
	"screenrec/internal/recording"
)

type recordOptions struct {
	output        string
	duration      time.Duration
	mechanism     string
	serial        string
	skipPreflight bool
}

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var opts recordOptions

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the device screen until interrupted or the duration elapses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cfg); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if !opts.skipPreflight {
				results := preflight.RunAll(cmd.Context(), cfg)
				if preflight.AnyFailed(results) {
					colorize := shouldColorize(out)
					for _, result := range results {
						if result.Failed() {
							fmt.Fprintln(out, renderStatusLine(result.Name, statusError, result.Detail, colorize))
						}
					}
					return errors.New("preflight checks failed (run `screenrec preflight` for details)")
				}
			}

			set, err := buildRecorders(cfg, logger, out, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			candidates, err := set.candidates(cfg.Recording.Mechanism)
			if err != nil {
				return err
			}
			recorder, err := recording.Select(candidates...)
			if err != nil {
				return err
			}

			destination, err := cfg.RecordingPath(opts.output, time.Now())
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, unix.SIGTERM)
			defer stop()

			runner := &capture.Runner{
				Recorder:    recorder,
				Ledger:      store,
				LockDir:     cfg.LockDir(),
				Device:      cfg.Device.Serial,
				Platform:    cfg.Device.Platform,
				WatchUSB:    cfg.Device.WatchUSB,
				StopTimeout: cfg.StopTimeout(),
				Logger:      logger,
			}

			fmt.Fprintf(out, "Recording to %s with %s (Ctrl+C to stop)\n", destination, recorder.Name())
			result, err := runner.Record(runCtx, capture.Request{Destination: destination, Duration: opts.duration})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %s (%s, %s, %s)\n",
				result.Destination,
				humanize.Bytes(uint64(max(result.SizeBytes, 0))),
				result.Elapsed.Round(100*time.Millisecond),
				result.Reason,
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Recording file (relative names go under paths.recordings_dir)")
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 0, "Stop after this long (0 records until interrupted)")
	cmd.Flags().StringVarP(&opts.mechanism, "mechanism", "m", "", "Override recording.mechanism (auto, screenrecord, scrcpy)")
	cmd.Flags().StringVarP(&opts.serial, "serial", "s", "", "Override device.serial")
	cmd.Flags().BoolVar(&opts.skipPreflight, "skip-preflight", false, "Skip directory and dependency checks")
	return cmd
}

// apply folds command-line overrides into cfg and revalidates it.
func (o recordOptions) apply(cfg *config.Config) error {
	if o.duration < 0 {
		return errors.New("--duration must be zero or positive")
	}
	if mechanism := strings.ToLower(strings.TrimSpace(o.mechanism)); mechanism != "" {
		cfg.Recording.Mechanism = mechanism
	}
	if serial := strings.TrimSpace(o.serial); serial != "" {
		cfg.Device.Serial = serial
	}
	return cfg.Validate()
}
