package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"screenrec/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past recordings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recordings yet")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					shortID(entry.ID),
					humanize.Time(entry.StartedAt),
					valueOrDash(entry.Device),
					entry.Mechanism,
					string(entry.Status),
					formatEntryDuration(entry),
					formatEntrySize(entry),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{title: "ID"},
				{title: "Started"},
				{title: "Device"},
				{title: "Mechanism"},
				{title: "Status"},
				{title: "Duration", right: true},
				{title: "Size", right: true},
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 shows all)")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := findEntry(cmd.Context(), store, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", entry.ID)
			fmt.Fprintf(out, "Status:      %s\n", entry.Status)
			fmt.Fprintf(out, "Device:      %s\n", valueOrDash(entry.Device))
			fmt.Fprintf(out, "Platform:    %s\n", valueOrDash(entry.Platform))
			fmt.Fprintf(out, "Mechanism:   %s\n", entry.Mechanism)
			fmt.Fprintf(out, "Destination: %s\n", entry.Destination)
			fmt.Fprintf(out, "Started:     %s\n", entry.StartedAt.Local().Format(time.RFC3339))
			if !entry.FinishedAt.IsZero() {
				fmt.Fprintf(out, "Finished:    %s\n", entry.FinishedAt.Local().Format(time.RFC3339))
			}
			fmt.Fprintf(out, "Duration:    %s\n", formatEntryDuration(entry))
			fmt.Fprintf(out, "Size:        %s\n", formatEntrySize(entry))
			if entry.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:       %s\n", entry.ErrorMessage)
			}
			return nil
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return errors.New("--older-than must be zero or positive")
			}
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history %s\n", removed, pluralize(removed, "entry", "entries"))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 720*time.Hour, "Only remove entries started longer ago than this")
	return cmd
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

// findEntry resolves a full identifier or the unique prefix shown by `history`.
func findEntry(ctx context.Context, store *history.Store, id string) (*history.Entry, error) {
	if id == "" {
		return nil, errors.New("recording id required")
	}
	entry, err := store.Get(ctx, id)
	if err != nil || entry != nil {
		return entry, err
	}
	entries, err := store.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	var match *history.Entry
	for _, candidate := range entries {
		if !strings.HasPrefix(candidate.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("recording id %s is ambiguous", id)
		}
		match = candidate
	}
	if match == nil {
		return nil, fmt.Errorf("recording %s not found", id)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatEntryDuration(entry *history.Entry) string {
	if !entry.Finished() {
		return "-"
	}
	return entry.Duration().Round(time.Second).String()
}

func formatEntrySize(entry *history.Entry) string {
	if entry.SizeBytes <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(entry.SizeBytes))
}

func pluralize(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
