package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"framegrab/internal/gatekeeper"
	"framegrab/internal/identity"
	"framegrab/models"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var asPro bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <jobId>",
		Short: "Show a stored job and the view a caller would receive",
		Args:  cobra.ExactArgs(1),
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

			mode, err := gatekeeper.ParseMode(cfg.Gating.Mode)
			if err != nil {
				return err
			}
			var caller *identity.Identity
			if asPro {
				caller = &identity.Identity{UserID: "operator", Pro: true}
			}
			view, err := gatekeeper.New(backend, mode, logger).Status(cmd.Context(), args[0], caller)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			job, err := backend.Get(cmd.Context(), args[0])
			if err != nil {
				fmt.Fprintf(out, "No record for %s (%v)\n", args[0], err)
			} else {
				fmt.Fprintln(out, renderJob(job))
			}
			fmt.Fprintln(out, renderView(view))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asPro, "pro", false, "Project the job as a pro caller would see it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the caller's view as JSON")
	return cmd
}

func renderJob(job models.Job) string {
	archive := "-"
	if job.ArchiveURL != nil {
		archive = *job.ArchiveURL
	}
	rows := [][2]string{
		{"jobId", job.JobID},
		{"status", string(job.Status)},
		{"sourceUrl", job.SourceURL},
		{"quality", strconv.Itoa(job.RequestedQuality)},
		{"frameLimit", strconv.Itoa(job.FrameLimit)},
		{"ownerTier", string(job.OwnerTier)},
		{"frames", strconv.Itoa(len(job.Frames))},
		{"archiveUrl", archive},
		{"error", job.Error},
		{"revision", strconv.Itoa(job.Revision)},
		{"dispatchAttempts", strconv.Itoa(job.DispatchAttempts)},
		{"createdAt", formatTime(job.CreatedAt)},
		{"updatedAt", formatTime(job.UpdatedAt)},
	}
	return renderPairs("Record", rows)
}

func renderView(view models.View) string {
	done, ok := view.(models.DoneView)
	if !ok {
		rows := [][2]string{{"status", string(view.Status())}}
		if ev, isErr := view.(models.ErrorView); isErr {
			rows = append(rows, [2]string{"error", ev.Message})
		}
		return renderPairs("View", rows)
	}

	archive := "withheld"
	if done.ArchiveURL != nil {
		archive = *done.ArchiveURL
	}
	title := fmt.Sprintf("View: DONE, pro=%t, archive=%s", done.IsProTier, archive)
	return renderFrames(title, done.Frames)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
