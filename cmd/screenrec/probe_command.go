package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"screenrec/internal/recording"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Report which recording mechanisms are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			set, err := buildRecorders(cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			candidates, err := set.candidates(cfg.Recording.Mechanism)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, 2)
			for _, rec := range set.all() {
				ok, reason := recording.IsAvailable(rec.Probe())
				rows = append(rows, []string{rec.Name(), yesNo(ok), valueOrDash(reason)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]column{{title: "Mechanism"}, {title: "Available"}, {title: "Detail"}}, rows))

			selected, err := recording.Select(candidates...)
			if err != nil {
				fmt.Fprintf(out, "No usable mechanism for %q: %v\n", cfg.Recording.Mechanism, err)
				return nil
			}
			fmt.Fprintf(out, "Selected: %s\n", selected.Name())
			return nil
		},
	}
}
