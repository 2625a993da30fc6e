package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framegrab/internal/results"
)

func newFailCommand(ctx *commandContext) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "fail <jobId>",
		Short: "Mark a stuck job as failed",
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

			if err := results.NewWriter(backend).Fail(cmd.Context(), args[0], message); err != nil {
				return fmt.Errorf("fail job %s: %w", args[0], err)
			}
			logger.WithField("job_id", args[0]).Info("Job marked as failed by operator")
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> ERROR: %s\n", args[0], message)
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "Processing timed out", "Error message shown to callers")
	return cmd
}
