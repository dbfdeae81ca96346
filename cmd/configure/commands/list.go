package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openrelief/aidbridge/internal/config"
	"github.com/openrelief/aidbridge/internal/origin"
)

// NewListCmd creates the list command showing the effective configuration.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the effective gateway configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			policy, err := origin.NewPolicy(cfg.AllowedOrigins, cfg.CORSAllowCredentials, cfg.Env)
			if err != nil {
				return fmt.Errorf("build origin policy: %w", err)
			}

			fmt.Println("Effective configuration:")
			fmt.Printf("  Environment: %s\n", cfg.Env)
			fmt.Printf("  Server port: %s\n", cfg.ServerPort)
			fmt.Printf("  Allowed origins: %s\n", strings.Join(policy.Origins(), ", "))
			fmt.Printf("  Allow credentials: %v\n", policy.AllowCredentials())
			fmt.Printf("  Rate limit: %d per %s (backend: %s)\n", cfg.RateLimitMax, cfg.RateLimitWindow, cfg.RateLimitBackend)
			return nil
		},
	}
}
