package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_MIGRATE", "IMAGE_DIR", "LLM_PROVIDER", "API_URL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "3000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DBMigrate {
		t.Error("DBMigrate defaulted to true")
	}
	if cfg.ImageDir != "temp/images" || cfg.LLMProvider != "gemini" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_MIGRATE", "true")
	t.Setenv("PROJECT_ID", "proj-7")
	t.Setenv("OPENAI_BASE_URL", "https://api.groq.com/openai/v1")
	cfg := Load()
	if cfg.Port != "8080" || !cfg.DBMigrate || cfg.ProjectID != "proj-7" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.OpenAIBaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("OpenAIBaseURL = %q", cfg.OpenAIBaseURL)
	}
}
