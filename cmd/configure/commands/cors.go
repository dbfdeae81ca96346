package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openrelief/aidbridge/internal/config"
	"github.com/openrelief/aidbridge/internal/origin"
)

// NewCorsCmd creates the cors command with a check subcommand.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Inspect the origin policy",
		Long:  "Evaluate Origin header values against the configured origin policy.",
	}
	cmd.AddCommand(newCorsCheckCmd())
	return cmd
}

func newCorsCheckCmd() *cobra.Command {
	var originValue string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether an origin would be allowed",
		RunE: func(cmd *cobra.Command, args []string) error {
			originValue = strings.TrimSpace(originValue)
			if originValue == "" {
				return fmt.Errorf("--origin is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			policy, err := origin.NewPolicy(cfg.AllowedOrigins, cfg.CORSAllowCredentials, cfg.Env)
			if err != nil {
				return fmt.Errorf("build origin policy: %w", err)
			}

			decision, norm := policy.Evaluate(originValue)
			switch decision {
			case origin.DecisionAllowed:
				fmt.Printf("ALLOWED: %s\n", norm)
				if policy.AllowCredentials() {
					fmt.Println("  (credentialed requests permitted)")
				}
			case origin.DecisionDenied:
				fmt.Printf("DENIED: %s (would receive 403)\n", norm)
			default:
				fmt.Println("NO ORIGIN: request would pass through without CORS headers")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&originValue, "origin", "", "Origin header value to evaluate (required)")
	return cmd
}
