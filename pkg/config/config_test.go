package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.OpenAI.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.OpenAI.RunTimeout)
	assert.Equal(t, "https://api.notion.com", cfg.Notion.BaseURL)
	assert.Equal(t, "scoring", cfg.Classifier.Strategy)
	assert.Equal(t, "last_edit_time.txt", cfg.Sync.CheckpointPath)
	assert.Equal(t, 5002, cfg.Server.Port)
	assert.True(t, cfg.Database.UseInMemory)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ASSISTANT_ID", "asst_1")
	t.Setenv("NOTION_TOKEN", "secret_x")
	t.Setenv("NOTION_DATABASE_ID", "db1")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://bob:pw@db.local:6543/memo?sslmode=require")

	cfg, err := LoadConfig("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "asst_1", cfg.OpenAI.AssistantID)
	assert.Equal(t, "secret_x", cfg.Notion.Token)
	assert.Equal(t, "db1", cfg.Notion.DatabaseID)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DatabaseConfig{
		Host:     "db.local",
		Port:     6543,
		User:     "bob",
		Password: "pw",
		DBName:   "memo",
		SSLMode:  "require",
	}, cfg.Database)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	content := []byte("classifier:\n  strategy: keyword\nopenai:\n  poll_interval: 250ms\nsync:\n  watch_dir: /tmp/watch\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "keyword", cfg.Classifier.Strategy)
	assert.Equal(t, 250*time.Millisecond, cfg.OpenAI.PollInterval)
	assert.Equal(t, "/tmp/watch", cfg.Sync.WatchDir)
}

func TestValidate_ListsEveryMissingValue(t *testing.T) {
	cfg := &Config{OpenAI: OpenAIConfig{APIKey: "sk"}}

	err := cfg.Validate(OpenAIAPIKey, AssistantID, NotionToken)
	require.Error(t, err)
	assert.Equal(t, "missing environment variables: ASSISTANT_ID, NOTION_TOKEN", err.Error())

	assert.NoError(t, cfg.Validate(OpenAIAPIKey))
}

// chdir mirrors testing.T.Chdir (Go 1.24+): switch the working directory for
// the duration of the test and restore it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
