package main

import (
	"fmt"
	"os"

	"github.com/inkwell-ai/inkwell/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "inkwell-configure",
		Short: "Configuration tool for the Inkwell API",
		Long:  "CLI tool for managing prompt templates, user approval and AI settings",
	}

	rootCmd.AddCommand(commands.NewPromptsCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
	rootCmd.AddCommand(commands.NewLimitsCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
