package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/inkwell-ai/inkwell/internal/config"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewTestCmd creates the test command, which sends a one-line prompt through
// the configured backend for a role.
func NewTestCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test AI backend connectivity",
		Long:  "Send a short prompt to the model bound to a role and report the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			var model string
			switch ai.ModelRole(role) {
			case ai.RoleAnalysis:
				model = cfg.AnalysisModel
			case ai.RoleTranscription:
				model = cfg.TranscriptionModel
			default:
				return fmt.Errorf("unknown role %q (expected analysis or transcription)", role)
			}
			if model == "" {
				return fmt.Errorf("no model configured for role %q", role)
			}

			fmt.Printf("Testing role %s (model %s)...\n", role, model)

			backend := ai.NewOpenAIBackend(cfg.OpenAIKey, cfg.AIBaseURL, model, zap.NewNop(), false)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			resp, err := backend.Generate(ctx,
				[]ai.Part{ai.TextPart("Reply with the single word: ok")},
				ai.GenerateOptions{},
			)
			if err != nil {
				return fmt.Errorf("backend call failed: %w", err)
			}
			if resp.BlockReason != "" {
				return fmt.Errorf("backend blocked the test prompt: %s", resp.BlockReason)
			}

			fmt.Printf("✓ Backend responded: %q\n", resp.Text)
			if resp.Usage != nil {
				fmt.Printf("  Tokens: %d prompt, %d completion\n", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "analysis", "Role to test (analysis or transcription)")
	return cmd
}
