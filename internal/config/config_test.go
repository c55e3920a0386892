package config

import "testing"

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RABBITMQ_URL", "amqp://localhost")

	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/inkwell")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("RABBITMQ_URL", "amqp://localhost")

	if _, err := Load(); err == nil {
		t.Error("expected error when OPENAI_API_KEY is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/inkwell")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RABBITMQ_URL", "amqp://localhost")
	t.Setenv("AI_ANALYSIS_RPM", "")
	t.Setenv("AI_ANALYSIS_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.AnalysisModel != "gpt-4o-mini" {
		t.Errorf("AnalysisModel = %q, want gpt-4o-mini", cfg.AnalysisModel)
	}
	if cfg.AnalysisLimits.RPM != 15 || cfg.AnalysisLimits.RPD != 1500 {
		t.Errorf("AnalysisLimits = %+v, want 15 rpm / 1500 rpd", cfg.AnalysisLimits)
	}
	if !cfg.AnalysisSupportsJSON {
		t.Error("analysis role should declare JSON output support by default")
	}
	if !cfg.TranscriptionSupportsJSON {
		t.Error("transcription role should declare JSON output support by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/inkwell")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RABBITMQ_URL", "amqp://localhost")
	t.Setenv("AI_TRANSCRIPTION_MODEL", "gpt-4o-audio-preview")
	t.Setenv("AI_TRANSCRIPTION_RPM", "30")
	t.Setenv("SERVER_DEBUG_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.TranscriptionModel != "gpt-4o-audio-preview" {
		t.Errorf("TranscriptionModel = %q", cfg.TranscriptionModel)
	}
	if cfg.TranscriptionLimits.RPM != 30 {
		t.Errorf("TranscriptionLimits.RPM = %d, want 30", cfg.TranscriptionLimits.RPM)
	}
	if !cfg.ServerDebugMode {
		t.Error("ServerDebugMode should be true")
	}
}
