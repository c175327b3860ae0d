package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"screenrec/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	var skipDevice bool

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check directories, binaries, and device connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			if !skipDevice && adbPassed(results) {
				adb, err := newADB(cfg, logger)
				if err != nil {
					return err
				}
				results = append(results, preflight.CheckDevice(cmd.Context(), adb, cfg.Device.Serial))
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, result := range results {
				fmt.Fprintln(out, renderStatusLine(result.Name, preflightKind(result), result.Detail, colorize))
			}
			if preflight.AnyFailed(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipDevice, "skip-device", false, "Skip the connected device check")
	return cmd
}

func adbPassed(results []preflight.Result) bool {
	for _, result := range results {
		if result.Name == "adb" {
			return result.Passed
		}
	}
	return false
}
