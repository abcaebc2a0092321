// Package config provides configuration management for the contest translator.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"contest-translator/internal/logger"
	"contest-translator/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "contest-translator-config.json"
	// EnvAPIKey is the environment variable name for the translation API key
	EnvAPIKey = "DEEPSEEK_API_KEY"
	// EnvBaseURL is the environment variable name for the API base URL
	EnvBaseURL = "TRANSLATOR_BASE_URL"
	// DefaultBaseURL is the default chat completions base URL
	DefaultBaseURL = "https://api.deepseek.com"
	// DefaultModel is the default model to use for translation
	DefaultModel = "deepseek-chat"
	// DefaultPixelRatio approximates the display pixel density used to derive
	// the preview render scale
	DefaultPixelRatio = 2.0
	// DefaultMinRenderScale is the lower clamp bound of the render scale
	DefaultMinRenderScale = 3.0
	// DefaultMaxRenderScale is the upper clamp bound of the render scale
	DefaultMaxRenderScale = 6.0
	// DefaultSplitPromptThreshold is the page count above which a multi-page
	// PDF is analyzed for contest-mode splitting
	DefaultSplitPromptThreshold = 4
)

// Config 应用配置
type Config struct {
	APIKey               string  `json:"api_key"`
	BaseURL              string  `json:"base_url"`
	Model                string  `json:"model"`
	PixelRatio           float64 `json:"pixel_ratio"`
	MinRenderScale       float64 `json:"min_render_scale"`
	MaxRenderScale       float64 `json:"max_render_scale"`
	SplitPromptThreshold int     `json:"split_prompt_threshold"`
}

// Manager manages the application configuration file.
type Manager struct {
	mu         sync.RWMutex
	configPath string
	config     *Config
	log        logger.Logger
}

// NewManager creates a Manager with the specified config path.
// If configPath is empty, it uses the default path in the user's home directory.
func NewManager(configPath string, log logger.Logger) (*Manager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get user home directory", err)
			return nil, types.NewAppError(types.ErrConfigMissing, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "contest-translator", DefaultConfigFileName)
	}
	return &Manager{
		configPath: configPath,
		config:     defaultConfig(),
		log:        log,
	}, nil
}

func defaultConfig() *Config {
	return &Config{
		BaseURL:              DefaultBaseURL,
		Model:                DefaultModel,
		PixelRatio:           DefaultPixelRatio,
		MinRenderScale:       DefaultMinRenderScale,
		MaxRenderScale:       DefaultMaxRenderScale,
		SplitPromptThreshold: DefaultSplitPromptThreshold,
	}
}

// Load loads configuration from the config file. A missing file is not an
// error: defaults are used. Environment variables override empty fields.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			m.log.Info("config file not found, using defaults", logger.String("path", m.configPath))
			m.config = defaultConfig()
		} else {
			m.log.Error("failed to read config file", err, logger.String("path", m.configPath))
			return types.NewAppError(types.ErrConfigMissing, "failed to read config file", err)
		}
	} else {
		cfg := &Config{}
		if err := json.Unmarshal(data, cfg); err != nil {
			m.log.Warn("invalid config file format, using defaults",
				logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			m.config = cfg
		}
	}

	m.applyDefaults()
	m.applyEnv()

	m.log.Info("configuration loaded",
		logger.String("path", m.configPath),
		logger.Int("apiKeyLength", len(m.config.APIKey)),
		logger.String("baseURL", m.config.BaseURL),
		logger.String("model", m.config.Model))
	return nil
}

func (m *Manager) applyDefaults() {
	if m.config.BaseURL == "" {
		m.config.BaseURL = DefaultBaseURL
	}
	if m.config.Model == "" {
		m.config.Model = DefaultModel
	}
	if m.config.PixelRatio <= 0 {
		m.config.PixelRatio = DefaultPixelRatio
	}
	if m.config.MinRenderScale <= 0 {
		m.config.MinRenderScale = DefaultMinRenderScale
	}
	if m.config.MaxRenderScale <= 0 {
		m.config.MaxRenderScale = DefaultMaxRenderScale
	}
	if m.config.SplitPromptThreshold <= 0 {
		m.config.SplitPromptThreshold = DefaultSplitPromptThreshold
	}
}

func (m *Manager) applyEnv() {
	if m.config.APIKey == "" {
		if v := os.Getenv(EnvAPIKey); v != "" {
			m.config.APIKey = v
		}
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		m.config.BaseURL = v
	}
}

// Save writes the current configuration to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrConfigMissing, "failed to create config directory", err)
	}
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrInternal, "failed to marshal config", err)
	}
	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return types.NewAppError(types.ErrConfigMissing, "failed to write config file", err)
	}
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// SetAPIKey updates the API key and persists the configuration.
func (m *Manager) SetAPIKey(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.APIKey = key
	return m.saveLocked()
}

// ConfigPath returns the path of the configuration file.
func (m *Manager) ConfigPath() string {
	return m.configPath
}
