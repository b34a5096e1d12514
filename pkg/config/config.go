package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Notion     NotionConfig     `mapstructure:"notion"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

type OpenAIConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	AssistantID  string        `mapstructure:"assistant_id"`
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	RunTimeout   time.Duration `mapstructure:"run_timeout"`
}

type NotionConfig struct {
	Token      string        `mapstructure:"token"`
	DatabaseID string        `mapstructure:"database_id"`
	PageID     string        `mapstructure:"page_id"`
	BaseURL    string        `mapstructure:"base_url"`
	Version    string        `mapstructure:"version"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type ClassifierConfig struct {
	Strategy string `mapstructure:"strategy"`
}

type SyncConfig struct {
	CheckpointPath string `mapstructure:"checkpoint_path"`
	RedisURL       string `mapstructure:"redis_url"`
	RedisKey       string `mapstructure:"redis_key"`
	WatchDir       string `mapstructure:"watch_dir"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

// LoadConfig reads defaults, an optional config file (path may be empty or
// missing) and the environment. A .env file in the working directory is
// loaded first and never overrides variables that are already set.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("openai.poll_interval", time.Second)
	v.SetDefault("openai.run_timeout", 5*time.Minute)
	v.SetDefault("notion.base_url", "https://api.notion.com")
	v.SetDefault("notion.version", "2022-06-28")
	v.SetDefault("notion.timeout", 30*time.Second)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", true)
	v.SetDefault("classifier.strategy", "scoring")
	v.SetDefault("sync.checkpoint_path", "last_edit_time.txt")
	v.SetDefault("sync.redis_key", "memo-bridge:last_edit_time")
	v.SetDefault("sync.watch_dir", ".")
	v.SetDefault("server.port", 5002)
	v.SetDefault("server.static_dir", "static")
	v.SetDefault("log.development", false)

	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); statErr == nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		config.Database = dbConfig
	}

	overrides := map[string]*string{
		"OPENAI_API_KEY":     &config.OpenAI.APIKey,
		"ASSISTANT_ID":       &config.OpenAI.AssistantID,
		"NOTION_TOKEN":       &config.Notion.Token,
		"NOTION_DATABASE_ID": &config.Notion.DatabaseID,
		"NOTION_PAGE_ID":     &config.Notion.PageID,
		"TELEGRAM_TOKEN":     &config.Telegram.Token,
		"REDIS_URL":          &config.Sync.RedisURL,
	}
	for env, dst := range overrides {
		if val := v.GetString(env); val != "" {
			*dst = val
		}
	}

	if port := v.GetInt("PORT"); port != 0 {
		config.Server.Port = port
	}

	return &config, nil
}

// Required names understood by Validate.
const (
	OpenAIAPIKey     = "OPENAI_API_KEY"
	AssistantID      = "ASSISTANT_ID"
	NotionToken      = "NOTION_TOKEN"
	NotionDatabaseID = "NOTION_DATABASE_ID"
	NotionPageID     = "NOTION_PAGE_ID"
	TelegramToken    = "TELEGRAM_TOKEN"
)

// Validate fails listing every required value that is missing.
func (c *Config) Validate(required ...string) error {
	values := map[string]string{
		OpenAIAPIKey:     c.OpenAI.APIKey,
		AssistantID:      c.OpenAI.AssistantID,
		NotionToken:      c.Notion.Token,
		NotionDatabaseID: c.Notion.DatabaseID,
		NotionPageID:     c.Notion.PageID,
		TelegramToken:    c.Telegram.Token,
	}

	var missing []string
	for _, name := range required {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
