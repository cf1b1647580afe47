// Package config loads minutes settings from defaults, a TOML file, .env
// files and MINUTES_* environment variables, in that order.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultLanguage           = "pt"
	DefaultResponseFormat     = "text"
	DefaultTranscriptionModel = "whisper-1"
	DefaultSummaryModel       = "gpt-4o-mini"
	DefaultFlushInterval      = 15 * time.Second
	DefaultFrameTimeout       = time.Second
	DefaultQueueSize          = 1024
	DefaultListenAddr         = "127.0.0.1:8765"
)

type Config struct {
	SessionsDir        string
	OpenAIKey          string
	OpenAIBaseURL      string
	TranscriptionModel string
	SummaryModel       string
	Language           string
	ResponseFormat     string
	FlushInterval      time.Duration
	FrameTimeout       time.Duration
	QueueSize          int
	FlushOnStop        bool
	ListenAddr         string
	SocketPath         string
	SummaryPrompt      string // empty uses the built-in template
}

type fileConfig struct {
	SessionsDir        string `toml:"sessions_dir"`
	OpenAIKey          string `toml:"openai_api_key"`
	OpenAIBaseURL      string `toml:"openai_base_url"`
	TranscriptionModel string `toml:"transcription_model"`
	SummaryModel       string `toml:"summary_model"`
	Language           string `toml:"language"`
	ResponseFormat     string `toml:"response_format"`
	FlushInterval      string `toml:"flush_interval"`
	FrameTimeout       string `toml:"frame_timeout"`
	QueueSize          int    `toml:"queue_size"`
	FlushOnStop        *bool  `toml:"flush_on_stop"`
	ListenAddr         string `toml:"listen_addr"`
	SocketPath         string `toml:"socket_path"`
	SummaryPrompt      string `toml:"summary_prompt"`
}

// Load reads the user's config file and any .env in the working directory.
func Load() (*Config, error) {
	return LoadFrom(configFilePath(), ".env")
}

// LoadFrom applies the TOML file at path (ignored when empty or missing),
// then the given .env files, then the environment.
func LoadFrom(path string, envFiles ...string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			var fc fileConfig
			if _, err := toml.DecodeFile(path, &fc); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			if err := applyFile(cfg, fc); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	loadEnvFiles(envFiles...)
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		SessionsDir:        defaultSessionsDir(),
		TranscriptionModel: DefaultTranscriptionModel,
		SummaryModel:       DefaultSummaryModel,
		Language:           DefaultLanguage,
		ResponseFormat:     DefaultResponseFormat,
		FlushInterval:      DefaultFlushInterval,
		FrameTimeout:       DefaultFrameTimeout,
		QueueSize:          DefaultQueueSize,
		ListenAddr:         DefaultListenAddr,
		SocketPath:         DefaultSocketPath(),
	}
}

// EnsureDirs creates the sessions directory.
func (c *Config) EnsureDirs() error {
	return os.MkdirAll(c.SessionsDir, 0o755)
}

func applyFile(cfg *Config, fc fileConfig) error {
	if fc.SessionsDir != "" {
		cfg.SessionsDir = expandTilde(fc.SessionsDir)
	}
	setString(&cfg.OpenAIKey, fc.OpenAIKey)
	setString(&cfg.OpenAIBaseURL, fc.OpenAIBaseURL)
	setString(&cfg.TranscriptionModel, fc.TranscriptionModel)
	setString(&cfg.SummaryModel, fc.SummaryModel)
	setString(&cfg.Language, fc.Language)
	setString(&cfg.ResponseFormat, fc.ResponseFormat)
	setString(&cfg.ListenAddr, fc.ListenAddr)
	setString(&cfg.SummaryPrompt, fc.SummaryPrompt)
	if fc.SocketPath != "" {
		cfg.SocketPath = expandTilde(fc.SocketPath)
	}
	if fc.QueueSize > 0 {
		cfg.QueueSize = fc.QueueSize
	}
	if fc.FlushOnStop != nil {
		cfg.FlushOnStop = *fc.FlushOnStop
	}
	if err := setDuration(&cfg.FlushInterval, "flush_interval", fc.FlushInterval); err != nil {
		return err
	}
	return setDuration(&cfg.FrameTimeout, "frame_timeout", fc.FrameTimeout)
}

func loadEnvFiles(files ...string) {
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			if err := godotenv.Load(file); err != nil {
				log.Printf("[CONFIG]: Warning, could not load %s: %v", file, err)
			}
		}
	}
}

func applyEnvOverrides(cfg *Config) error {
	// The conventional OpenAI variable is a fallback; the prefixed one wins.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.OpenAIKey == "" {
		cfg.OpenAIKey = v
	}
	setString(&cfg.OpenAIKey, os.Getenv("MINUTES_OPENAI_API_KEY"))
	setString(&cfg.OpenAIBaseURL, os.Getenv("MINUTES_OPENAI_BASE_URL"))
	setString(&cfg.TranscriptionModel, os.Getenv("MINUTES_TRANSCRIPTION_MODEL"))
	setString(&cfg.SummaryModel, os.Getenv("MINUTES_SUMMARY_MODEL"))
	setString(&cfg.Language, os.Getenv("MINUTES_LANGUAGE"))
	setString(&cfg.ResponseFormat, os.Getenv("MINUTES_RESPONSE_FORMAT"))
	setString(&cfg.ListenAddr, os.Getenv("MINUTES_LISTEN_ADDR"))
	setString(&cfg.SummaryPrompt, os.Getenv("MINUTES_SUMMARY_PROMPT"))
	if v := os.Getenv("MINUTES_SESSIONS_DIR"); v != "" {
		cfg.SessionsDir = expandTilde(v)
	}
	if v := os.Getenv("MINUTES_SOCKET_PATH"); v != "" {
		cfg.SocketPath = expandTilde(v)
	}

	if v := os.Getenv("MINUTES_QUEUE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("MINUTES_QUEUE_SIZE: invalid value %q", v)
		}
		cfg.QueueSize = n
	}
	if v := os.Getenv("MINUTES_FLUSH_ON_STOP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MINUTES_FLUSH_ON_STOP: invalid value %q", v)
		}
		cfg.FlushOnStop = b
	}
	if err := setDuration(&cfg.FlushInterval, "MINUTES_FLUSH_INTERVAL", os.Getenv("MINUTES_FLUSH_INTERVAL")); err != nil {
		return err
	}
	return setDuration(&cfg.FrameTimeout, "MINUTES_FRAME_TIMEOUT", os.Getenv("MINUTES_FRAME_TIMEOUT"))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fmt.Errorf("%s: invalid duration %q", name, v)
	}
	*dst = d
	return nil
}

func configFilePath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "minutes", "config.toml")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "minutes", "config.toml")
	}
	return ""
}

// ConfigFilePath returns where Load looks for the TOML file.
func ConfigFilePath() string {
	return configFilePath()
}

// DefaultSocketPath returns the control socket location.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "minutes.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("minutes-%d.sock", os.Getuid()))
}

func defaultSessionsDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "minutes")
	}
	return filepath.Join(".", "minutes")
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
