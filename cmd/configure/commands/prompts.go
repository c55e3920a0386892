package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/inkwell-ai/inkwell/internal/config"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/spf13/cobra"
)

// NewPromptsCmd creates the prompts command with list, show and set
// subcommands.
func NewPromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage prompt templates",
		Long:  "List, show or update the prompt templates stored in the database",
	}
	cmd.AddCommand(newPromptsListCmd())
	cmd.AddCommand(newPromptsShowCmd())
	cmd.AddCommand(newPromptsSetCmd())
	return cmd
}

func newPromptsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all prompt templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openPromptRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			templates, err := repo.List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list prompt templates: %w", err)
			}

			if len(templates) == 0 {
				fmt.Println("No prompt templates in database. The server seeds defaults on startup.")
				return nil
			}

			fmt.Println("Prompt templates:")
			for _, tpl := range templates {
				fmt.Printf("  - %s (%s)\n", tpl.ID, tpl.Category)
			}
			return nil
		},
	}
}

func newPromptsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one prompt template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openPromptRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			text, err := repo.Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get prompt template %q: %w", args[0], err)
			}

			fmt.Println(text)
			return nil
		},
	}
}

func newPromptsSetCmd() *cobra.Command {
	var file string
	var text string

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Update a prompt template",
		Long:  "Update a prompt template from --text or --file. Placeholders must be preserved.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" && file == "" {
				return fmt.Errorf("one of --text or --file is required")
			}
			if text != "" && file != "" {
				return fmt.Errorf("--text and --file are mutually exclusive")
			}

			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				text = string(data)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return fmt.Errorf("template text is empty")
			}

			repo, closeDB, err := openPromptRepo()
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.Update(context.Background(), args[0], text); err != nil {
				return fmt.Errorf("failed to update prompt template %q: %w", args[0], err)
			}

			fmt.Printf("Prompt template %q updated.\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "New template text")
	cmd.Flags().StringVar(&file, "file", "", "File containing the new template text")
	return cmd
}

// openPromptRepo loads configuration, connects and returns the repository
// plus a close function for the underlying pool.
func openPromptRepo() (*database.PromptRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return database.NewPromptRepository(db), closeDB, nil
}
