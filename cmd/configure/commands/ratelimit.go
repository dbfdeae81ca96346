package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openrelief/aidbridge/internal/config"
	"github.com/openrelief/aidbridge/internal/ratelimit"
)

// NewRatelimitCmd creates the ratelimit command with a simulate subcommand.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Inspect the admission limiter",
		Long:  "Simulate a burst of requests against the configured limit and window.",
	}
	cmd.AddCommand(newRatelimitSimulateCmd())
	return cmd
}

func newRatelimitSimulateCmd() *cobra.Command {
	var requests int
	var key string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a burst of requests from one client key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if requests <= 0 {
				return fmt.Errorf("--requests must be positive")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store := ratelimit.NewMemoryStore(cfg.RateLimitMax, cfg.RateLimitWindow)
			fmt.Printf("Simulating %d requests from %q (limit %d per %s):\n",
				requests, key, cfg.RateLimitMax, cfg.RateLimitWindow)

			admitted, rejected := 0, 0
			for i := 1; i <= requests; i++ {
				res, err := store.Take(context.Background(), key)
				if err != nil {
					return fmt.Errorf("take: %w", err)
				}
				if res.Allowed {
					admitted++
				} else {
					rejected++
				}
				if i <= 10 || !res.Allowed && rejected == 1 {
					verdict := "admit"
					if !res.Allowed {
						verdict = "reject (429)"
					}
					fmt.Printf("  #%d: %s, remaining=%d, reset_in=%s\n", i, verdict, res.Remaining, res.ResetAfter.Round(0))
				}
			}
			fmt.Printf("Admitted %d, rejected %d.\n", admitted, rejected)
			return nil
		},
	}
	cmd.Flags().IntVar(&requests, "requests", 10, "Number of requests to simulate")
	cmd.Flags().StringVar(&key, "key", "203.0.113.7", "Client key to charge")
	return cmd
}
