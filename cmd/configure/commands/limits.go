package commands

import (
	"fmt"
	"os"

	"github.com/inkwell-ai/inkwell/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// roleLimitsDoc is the YAML shape printed by the limits command.
type roleLimitsDoc struct {
	Analysis struct {
		Model      string `yaml:"model"`
		JSONOutput bool   `yaml:"json_output"`
		RPM        int    `yaml:"rpm"`
		RPD        int    `yaml:"rpd"`
	} `yaml:"analysis"`
	Transcription struct {
		Model      string `yaml:"model"`
		JSONOutput bool   `yaml:"json_output"`
		RPM        int    `yaml:"rpm"`
		RPD        int    `yaml:"rpd"`
	} `yaml:"transcription"`
	Transport struct {
		RequestsPerMinute int    `yaml:"requests_per_minute"`
		Burst             string `yaml:"burst"`
	} `yaml:"transport"`
}

// NewLimitsCmd creates the limits command, which prints the effective model
// bindings and admission budgets as YAML.
func NewLimitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "limits",
		Short: "Show effective model roles and rate limits",
		Long:  "Print the model bound to each role and its admission budgets, resolved from the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			var doc roleLimitsDoc
			doc.Analysis.Model = cfg.AnalysisModel
			doc.Analysis.JSONOutput = cfg.AnalysisSupportsJSON
			doc.Analysis.RPM = cfg.AnalysisLimits.RPM
			doc.Analysis.RPD = cfg.AnalysisLimits.RPD
			doc.Transcription.Model = cfg.TranscriptionModel
			doc.Transcription.JSONOutput = cfg.TranscriptionSupportsJSON
			doc.Transcription.RPM = cfg.TranscriptionLimits.RPM
			doc.Transcription.RPD = cfg.TranscriptionLimits.RPD
			doc.Transport.RequestsPerMinute = 120
			doc.Transport.Burst = "10-S"

			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("failed to encode limits: %w", err)
			}
			return enc.Close()
		},
	}
}
