package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"framegrab/internal/reconcile"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one reconciliation pass and print what it did",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			backend, closeBackend, err := openBackend(cfg, logger)
			if err != nil {
				return err
			}
			defer closeBackend()

			sweeper := reconcile.New(backend, reconcile.Config{
				QueuedThreshold:     cfg.QueuedThreshold(),
				MaxProcessingAge:    cfg.MaxProcessingAge(),
				MaxDispatchAttempts: cfg.Sweeper.MaxDispatchAttempts,
			}, logger)
			report, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSweepReport(report))
			return nil
		},
	}
}

func renderSweepReport(report reconcile.Report) string {
	rows := [][2]string{
		{"requeued", strconv.Itoa(len(report.Requeued))},
		{"abandoned", strconv.Itoa(len(report.Abandoned))},
		{"conflicts", strconv.Itoa(report.Conflicts)},
		{"failed", strconv.Itoa(report.Failed)},
		{"stale processing", strconv.Itoa(len(report.StaleProcessing))},
		{"corrupt records", strconv.Itoa(len(report.Corrupt))},
	}
	for _, id := range report.Requeued {
		rows = append(rows, [2]string{"requeued job", id})
	}
	for _, id := range report.Abandoned {
		rows = append(rows, [2]string{"abandoned job", id})
	}
	for _, stale := range report.StaleProcessing {
		age := "age unknown"
		if !stale.AgeUnknown {
			age = stale.Age.Round(time.Second).String()
		}
		rows = append(rows, [2]string{"stale job", fmt.Sprintf("%s (%s)", stale.JobID, age)})
	}
	for _, id := range report.Corrupt {
		rows = append(rows, [2]string{"corrupt record", id})
	}
	return renderPairs("Sweep", rows)
}
