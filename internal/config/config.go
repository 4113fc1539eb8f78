package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "COMMITLOGCTL_CONFIG"
	serviceTokenEnv = "RECORD_SERVICE_TOKEN"
	serviceURLEnv   = "RECORD_SERVICE_URL"
	collectionEnv   = "COMMIT_LOG_COLLECTION_ID"
	telegramToken   = "TELEGRAM_BOT_TOKEN"
	telegramChatID  = "TELEGRAM_CHAT_ID"
	checkpointEnv   = "COMMITLOGCTL_CHECKPOINT"
	auditPathEnv    = "COMMITLOGCTL_AUDIT_DB"
)

// Config holds high-level settings required across the application.
type Config struct {
	Service       ServiceConfig      `yaml:"service"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Checkpoint    CheckpointConfig   `yaml:"checkpoint"`
	Audit         AuditConfig        `yaml:"audit"`
	Notifications NotificationConfig `yaml:"notifications"`
	Properties    PropertyConfig     `yaml:"properties"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// ServiceConfig describes how to reach the hosted record service.
type ServiceConfig struct {
	BaseURL           string  `yaml:"baseUrl"`
	Token             string  `yaml:"token"`
	CollectionID      string  `yaml:"collectionId"`
	PageSize          int     `yaml:"pageSize"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// PipelineConfig bounds batching, pacing, and checkpoint cadence. Delays are
// plain integers in YAML so the file stays editable without duration syntax.
type PipelineConfig struct {
	BatchSize          int `yaml:"batchSize"`
	ArchiveConcurrency int `yaml:"archiveConcurrency"`
	RewriteConcurrency int `yaml:"rewriteConcurrency"`
	GroupDelayMs       int `yaml:"groupDelayMs"`
	BatchDelayMs       int `yaml:"batchDelayMs"`
	SaveEveryPages     int `yaml:"saveEveryPages"`
	SaveEveryRecords   int `yaml:"saveEveryRecords"`
	FetchTimeoutSec    int `yaml:"fetchTimeoutSec"`
}

// GroupDelay is the pause between concurrency groups.
func (p PipelineConfig) GroupDelay() time.Duration {
	return time.Duration(p.GroupDelayMs) * time.Millisecond
}

// BatchDelay is the pause between batches.
func (p PipelineConfig) BatchDelay() time.Duration {
	return time.Duration(p.BatchDelayMs) * time.Millisecond
}

// FetchTimeout is the wall-clock bound on the fetch stage.
func (p PipelineConfig) FetchTimeout() time.Duration {
	return time.Duration(p.FetchTimeoutSec) * time.Second
}

// CheckpointConfig locates the resumable progress file.
type CheckpointConfig struct {
	Path string `yaml:"path"`
}

// AuditConfig locates the local audit database.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// PropertyConfig names the collection properties dedup keys derive from.
type PropertyConfig struct {
	SHA     string `yaml:"sha"`
	Message string `yaml:"message"`
	Project string `yaml:"project"`
	Date    string `yaml:"date"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads the dotenv file (if present), YAML configuration (if present),
// and applies environment overrides, in that order. An explicit configFile
// wins over the COMMITLOGCTL_CONFIG environment variable.
func Load(envFile, configFile string) Config {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			log.Printf("config: cannot load %s: %v (continuing with process env)", envFile, err)
		}
	}

	cfg := defaultConfig()

	path := configFile
	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// ValidateService fails fast, before any network call, when the required
// credential or collection identifier is missing.
func (c Config) ValidateService() error {
	if c.Service.Token == "" {
		return fmt.Errorf("record service token is not configured (set %s)", serviceTokenEnv)
	}
	if c.Service.CollectionID == "" {
		return fmt.Errorf("collection identifier is not configured (set %s)", collectionEnv)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(serviceURLEnv); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv(serviceTokenEnv); v != "" {
		c.Service.Token = v
	}
	if v := os.Getenv(collectionEnv); v != "" {
		c.Service.CollectionID = v
	}
	if v := os.Getenv(telegramToken); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatID); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
	if v := os.Getenv(checkpointEnv); v != "" {
		c.Checkpoint.Path = v
	}
	if v := os.Getenv(auditPathEnv); v != "" {
		c.Audit.Path = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Service.BaseURL != "" {
		base.Service.BaseURL = override.Service.BaseURL
	}
	if override.Service.Token != "" {
		base.Service.Token = override.Service.Token
	}
	if override.Service.CollectionID != "" {
		base.Service.CollectionID = override.Service.CollectionID
	}
	if override.Service.PageSize > 0 {
		base.Service.PageSize = override.Service.PageSize
	}
	if override.Service.RequestsPerSecond > 0 {
		base.Service.RequestsPerSecond = override.Service.RequestsPerSecond
	}

	if override.Pipeline.BatchSize > 0 {
		base.Pipeline.BatchSize = override.Pipeline.BatchSize
	}
	if override.Pipeline.ArchiveConcurrency > 0 {
		base.Pipeline.ArchiveConcurrency = override.Pipeline.ArchiveConcurrency
	}
	if override.Pipeline.RewriteConcurrency > 0 {
		base.Pipeline.RewriteConcurrency = override.Pipeline.RewriteConcurrency
	}
	if override.Pipeline.GroupDelayMs > 0 {
		base.Pipeline.GroupDelayMs = override.Pipeline.GroupDelayMs
	}
	if override.Pipeline.BatchDelayMs > 0 {
		base.Pipeline.BatchDelayMs = override.Pipeline.BatchDelayMs
	}
	if override.Pipeline.SaveEveryPages > 0 {
		base.Pipeline.SaveEveryPages = override.Pipeline.SaveEveryPages
	}
	if override.Pipeline.SaveEveryRecords > 0 {
		base.Pipeline.SaveEveryRecords = override.Pipeline.SaveEveryRecords
	}
	if override.Pipeline.FetchTimeoutSec > 0 {
		base.Pipeline.FetchTimeoutSec = override.Pipeline.FetchTimeoutSec
	}

	if override.Checkpoint.Path != "" {
		base.Checkpoint.Path = override.Checkpoint.Path
	}
	if override.Audit.Path != "" {
		base.Audit.Path = override.Audit.Path
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Properties.SHA != "" {
		base.Properties.SHA = override.Properties.SHA
	}
	if override.Properties.Message != "" {
		base.Properties.Message = override.Properties.Message
	}
	if override.Properties.Project != "" {
		base.Properties.Project = override.Properties.Project
	}
	if override.Properties.Date != "" {
		base.Properties.Date = override.Properties.Date
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Service: ServiceConfig{
			BaseURL:           "https://api.records.example.com/v1",
			PageSize:          100,
			RequestsPerSecond: 3,
		},
		Pipeline: PipelineConfig{
			BatchSize:          50,
			ArchiveConcurrency: 10,
			RewriteConcurrency: 3,
			GroupDelayMs:       350,
			BatchDelayMs:       1000,
			SaveEveryPages:     5,
			SaveEveryRecords:   500,
			FetchTimeoutSec:    600,
		},
		Checkpoint: CheckpointConfig{Path: ".commitlog-checkpoint.json"},
		Audit:      AuditConfig{Path: "commitlog-audit.db"},
		Properties: PropertyConfig{
			SHA:     "Commit SHA",
			Message: "Commits",
			Project: "Project Name",
			Date:    "Date",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
