package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices visible to adb",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			adb, err := newADB(cfg, logger)
			if err != nil {
				return err
			}

			listCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			devices, err := adb.Devices(listCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(devices) == 0 {
				fmt.Fprintln(out, "No devices attached")
				return nil
			}
			rows := make([][]string, 0, len(devices))
			for _, d := range devices {
				selected := ""
				if d.Serial == cfg.Device.Serial {
					selected = "*"
				}
				rows = append(rows, []string{d.Serial, d.State, yesNo(d.Online()), selected})
			}
			fmt.Fprintln(out, renderTable([]column{
				{title: "Serial"},
				{title: "State"},
				{title: "Online"},
				{title: "Configured"},
			}, rows))
			return nil
		},
	}
}
