package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openrelief/aidbridge/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "aidbridge-configure",
		Short: "Configuration tool for the aidbridge API",
		Long:  "CLI tool for inspecting origin policy, rate limit, and other gateway settings",
	}

	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
