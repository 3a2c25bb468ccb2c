package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config fixture: %v", err)
	}
	return path
}

func TestLoadConfig_Full(t *testing.T) {
	path := writeConfig(t, `
app:
  name: "Summary Service"
  environment: "test"
logger:
  level: "debug"
openai:
  apiKey: "sk-test"
  chatModel: "gpt-4o"
databases:
  mysql:
    address: "db:3306"
    username: "u"
    password: "p"
    database: "d"
summary:
  targetTokens: 800
  blockTokens: 2000
server:
  httpPort: ":9090"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.App.Name != "Summary Service" || cfg.Logger.Level != "debug" {
		t.Errorf("App/logger sections not parsed: %+v", cfg.App)
	}
	if cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Errorf("OpenAI section not parsed: %+v", cfg.OpenAI)
	}
	if cfg.Databases.MySQL.Address != "db:3306" {
		t.Errorf("MySQL section not parsed: %+v", cfg.Databases.MySQL)
	}
	if cfg.Summary.TargetTokens != 800 || cfg.Summary.BlockTokens != 2000 {
		t.Errorf("Summary overrides not applied: %+v", cfg.Summary)
	}
	if cfg.Server.HTTPPort != ":9090" {
		t.Errorf("Server section not parsed: %+v", cfg.Server)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: \"minimal\"\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Summary.TargetTokens != 900 || cfg.Summary.OverlapTokens != 100 {
		t.Errorf("Chunking defaults missing: %+v", cfg.Summary)
	}
	if cfg.Summary.BlockTokens != 2500 || cfg.Summary.MinChars != 1500 {
		t.Errorf("Pipeline defaults missing: %+v", cfg.Summary)
	}
	if cfg.Summary.IngestBatchSize != 50 || cfg.Summary.CacheTTLSeconds != 300 {
		t.Errorf("Storage defaults missing: %+v", cfg.Summary)
	}
	if cfg.Summary.BooksDir != "books" || cfg.Server.HTTPPort != ":8080" {
		t.Errorf("Path/server defaults missing: %+v", cfg)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" || cfg.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("Model defaults missing: %+v", cfg.OpenAI)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}
