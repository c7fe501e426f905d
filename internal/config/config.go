package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr    string        `yaml:"addr" json:"addr"`
	DataDir string        `yaml:"data_dir" json:"data_dir"`
	Log     LogConfig     `yaml:"log" json:"log"`
	GitHub  GitHubConfig  `yaml:"github" json:"github"`
	Chat    ChatConfig    `yaml:"chat" json:"chat"`
	Session SessionConfig `yaml:"session" json:"session"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

type GitHubConfig struct {
	// APIBaseURL overrides the GitHub API host. Empty means the
	// public api.github.com.
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`
}

type ChatConfig struct {
	Model     string `yaml:"model" json:"model"`
	MaxTokens int64  `yaml:"max_tokens" json:"max_tokens"`

	// APIKey is only ever read from the environment, never from the
	// config file.
	APIKey string `yaml:"-" json:"-"`
}

type SessionConfig struct {
	// RestoreOnStart re-validates a provider token persisted by a
	// previous run.
	RestoreOnStart bool `yaml:"restore_on_start" json:"restore_on_start"`
}

func Default() *Config {
	return &Config{
		Addr:    ":8310",
		DataDir: "data",
		Log:     LogConfig{Level: "info"},
		Chat:    ChatConfig{MaxTokens: 1024},
		Session: SessionConfig{RestoreOnStart: true},
	}
}

// Load reads the YAML config at path and overlays environment
// variables. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BYTEBOARD_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("BYTEBOARD_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("BYTEBOARD_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BYTEBOARD_GITHUB_API_URL"); v != "" {
		c.GitHub.APIBaseURL = v
	}
	if v := os.Getenv("BYTEBOARD_CHAT_MODEL"); v != "" {
		c.Chat.Model = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Chat.APIKey = v
	}
}
