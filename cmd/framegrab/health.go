package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"framegrab/internal/healthcheck"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe a running server's gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensure()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = dialAddr(cfg.GRPC.Addr)
			}

			client, err := healthcheck.NewClient(addr)
			if err != nil {
				return err
			}
			defer client.Close()

			checkCtx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			status, err := client.Check(checkCtx, healthcheck.ServiceName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", addr, status)
			if status != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("service %s is %s", healthcheck.ServiceName, status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Health server address (defaults to grpc.addr)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Probe timeout")
	return cmd
}

// dialAddr turns a listen address such as ":9090" into a dialable one.
func dialAddr(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "localhost" + listen
	}
	return listen
}
