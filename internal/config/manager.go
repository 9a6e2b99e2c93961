// Package config provides environment-based configuration management.
package config

import (
	"fmt"
	"os"
	"sync"

	"wp-pilot/internal/types"
	"wp-pilot/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the complete application configuration loaded from the
// environment. Secrets (auth key, encryption key, provider keys) live here and
// are handed out through the ConfigManager interface only.
type Config struct {
	Server      types.ServerConfig
	Auth        types.AuthConfig
	CORS        types.CORSConfig
	Performance types.PerformanceConfig
	Log         types.LogConfig
	Database    types.DatabaseConfig
	Provider    types.ProviderConfig
	Gateway     types.GatewayConfig
	Monitor     types.MonitorConfig

	EncryptionKey string
	RedisDSN      string
}

// Manager implements types.ConfigManager on top of process environment
// variables. Reload replaces the whole config snapshot atomically.
type Manager struct {
	mu     sync.RWMutex
	config *Config
}

// NewManager creates a configuration manager, loading .env when present.
func NewManager() (types.ConfigManager, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Debug("No .env file loaded")
	}

	manager := &Manager{}
	if err := manager.ReloadConfig(); err != nil {
		return nil, err
	}
	if err := manager.Validate(); err != nil {
		return nil, err
	}
	return manager, nil
}

// ReloadConfig re-reads all configuration from the environment.
func (m *Manager) ReloadConfig() error {
	config := &Config{
		Server: types.ServerConfig{
			Port:                    utils.ParseInteger(os.Getenv("PORT"), 3001),
			Host:                    utils.GetEnvOrDefault("HOST", "0.0.0.0"),
			ReadTimeout:             utils.ParseInteger(os.Getenv("SERVER_READ_TIMEOUT"), 60),
			WriteTimeout:            utils.ParseInteger(os.Getenv("SERVER_WRITE_TIMEOUT"), 120),
			IdleTimeout:             utils.ParseInteger(os.Getenv("SERVER_IDLE_TIMEOUT"), 120),
			GracefulShutdownTimeout: utils.ParseInteger(os.Getenv("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT"), 10),
		},
		Auth: types.AuthConfig{
			Key: os.Getenv("AUTH_KEY"),
		},
		CORS: types.CORSConfig{
			Enabled:          utils.ParseBoolean(os.Getenv("ENABLE_CORS"), true),
			AllowedOrigins:   utils.ParseArray(utils.GetEnvOrDefault("ALLOWED_ORIGINS", "*")),
			AllowedMethods:   utils.ParseArray(utils.GetEnvOrDefault("ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS")),
			AllowedHeaders:   utils.ParseArray(utils.GetEnvOrDefault("ALLOWED_HEADERS", "*")),
			AllowCredentials: utils.ParseBoolean(os.Getenv("ALLOW_CREDENTIALS"), false),
		},
		Performance: types.PerformanceConfig{
			MaxConcurrentRequests: utils.ParseInteger(os.Getenv("MAX_CONCURRENT_REQUESTS"), 100),
		},
		Log: types.LogConfig{
			Level:      utils.GetEnvOrDefault("LOG_LEVEL", "info"),
			Format:     utils.GetEnvOrDefault("LOG_FORMAT", "text"),
			EnableFile: utils.ParseBoolean(os.Getenv("LOG_ENABLE_FILE"), false),
			FilePath:   utils.GetEnvOrDefault("LOG_FILE_PATH", "./data/logs/app.log"),
		},
		Database: types.DatabaseConfig{
			DSN: utils.GetEnvOrDefault("DATABASE_DSN", "./data/wp-pilot.db"),
		},
		Provider: types.ProviderConfig{
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:   utils.GetEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIModel:     utils.GetEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
			GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
			GeminiModel:     utils.GetEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
			DefaultProvider: utils.GetEnvOrDefault("DEFAULT_AI_PROVIDER", "gemini"),
		},
		Gateway: types.GatewayConfig{
			ConnectTimeout:        utils.ParseInteger(os.Getenv("WP_CONNECT_TIMEOUT"), 10),
			RequestTimeout:        utils.ParseInteger(os.Getenv("WP_REQUEST_TIMEOUT"), 30),
			ProbeTimeout:          utils.ParseInteger(os.Getenv("WP_PROBE_TIMEOUT"), 15),
			IdleConnTimeout:       utils.ParseInteger(os.Getenv("WP_IDLE_CONN_TIMEOUT"), 120),
			MaxIdleConns:          utils.ParseInteger(os.Getenv("WP_MAX_IDLE_CONNS"), 100),
			MaxIdleConnsPerHost:   utils.ParseInteger(os.Getenv("WP_MAX_IDLE_CONNS_PER_HOST"), 10),
			ResponseHeaderTimeout: utils.ParseInteger(os.Getenv("WP_RESPONSE_HEADER_TIMEOUT"), 30),
			UserAgent:             utils.GetEnvOrDefault("WP_USER_AGENT", "wp-pilot/1.0"),
		},
		Monitor: types.MonitorConfig{
			Enabled:               utils.ParseBoolean(os.Getenv("MONITOR_ENABLED"), true),
			IntervalMinutes:       utils.ParseInteger(os.Getenv("MONITOR_INTERVAL_MINUTES"), 15),
			AlertCooldownMinutes:  utils.ParseInteger(os.Getenv("MONITOR_ALERT_COOLDOWN_MINUTES"), 60),
			StatusCacheTTLSeconds: utils.ParseInteger(os.Getenv("MONITOR_STATUS_CACHE_TTL_SECONDS"), 60),
			ProbeConcurrency:      utils.ParseInteger(os.Getenv("MONITOR_PROBE_CONCURRENCY"), 5),
		},
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		RedisDSN:      os.Getenv("REDIS_DSN"),
	}

	m.mu.Lock()
	m.config = config
	m.mu.Unlock()
	return nil
}

// Validate checks configuration consistency.
func (m *Manager) Validate() error {
	m.mu.RLock()
	config := m.config
	m.mu.RUnlock()

	if config.Auth.Key == "" {
		return fmt.Errorf("AUTH_KEY is required")
	}
	if len(config.Auth.Key) < 16 {
		return fmt.Errorf("AUTH_KEY must be at least 16 characters")
	}
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", config.Server.Port)
	}
	if config.Database.DSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if config.Monitor.IntervalMinutes < 1 {
		return fmt.Errorf("MONITOR_INTERVAL_MINUTES must be at least 1, got %d", config.Monitor.IntervalMinutes)
	}
	if config.EncryptionKey == "" {
		logrus.Warn("ENCRYPTION_KEY is not set; stored credentials will NOT be encrypted")
	}
	return nil
}

func (m *Manager) snapshot() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetAuthConfig returns authentication configuration.
func (m *Manager) GetAuthConfig() types.AuthConfig {
	return m.snapshot().Auth
}

// GetCORSConfig returns CORS configuration.
func (m *Manager) GetCORSConfig() types.CORSConfig {
	return m.snapshot().CORS
}

// GetPerformanceConfig returns performance configuration.
func (m *Manager) GetPerformanceConfig() types.PerformanceConfig {
	return m.snapshot().Performance
}

// GetLogConfig returns logging configuration.
func (m *Manager) GetLogConfig() types.LogConfig {
	return m.snapshot().Log
}

// GetDatabaseConfig returns database configuration.
func (m *Manager) GetDatabaseConfig() types.DatabaseConfig {
	return m.snapshot().Database
}

// GetEncryptionKey returns the credential codec key.
func (m *Manager) GetEncryptionKey() string {
	return m.snapshot().EncryptionKey
}

// GetEffectiveServerConfig returns the server configuration.
func (m *Manager) GetEffectiveServerConfig() types.ServerConfig {
	return m.snapshot().Server
}

// GetRedisDSN returns the Redis DSN, empty when the memory store should be used.
func (m *Manager) GetRedisDSN() string {
	return m.snapshot().RedisDSN
}

// GetProviderConfig returns AI provider configuration.
func (m *Manager) GetProviderConfig() types.ProviderConfig {
	return m.snapshot().Provider
}

// GetGatewayConfig returns WordPress gateway configuration.
func (m *Manager) GetGatewayConfig() types.GatewayConfig {
	return m.snapshot().Gateway
}

// GetMonitorConfig returns background monitor configuration.
func (m *Manager) GetMonitorConfig() types.MonitorConfig {
	return m.snapshot().Monitor
}

// DisplayServerConfig logs the effective configuration at startup.
func (m *Manager) DisplayServerConfig() {
	config := m.snapshot()

	logrus.Info("Server configuration:")
	logrus.Infof("  Listen: %s:%d", config.Server.Host, config.Server.Port)
	logrus.Infof("  Database: %s", config.Database.DSN)
	if config.RedisDSN != "" {
		logrus.Info("  Store: redis")
	} else {
		logrus.Info("  Store: memory")
	}
	logrus.Infof("  Encryption: %v", config.EncryptionKey != "")
	logrus.Infof("  Monitor: enabled=%v interval=%dm", config.Monitor.Enabled, config.Monitor.IntervalMinutes)

	configured := make([]string, 0, 2)
	if config.Provider.OpenAIAPIKey != "" {
		configured = append(configured, "openai")
	}
	if config.Provider.GeminiAPIKey != "" {
		configured = append(configured, "gemini")
	}
	if len(configured) == 0 {
		logrus.Warn("  AI providers: none configured")
	} else {
		logrus.Infof("  AI providers: %v (default %s)", configured, config.Provider.DefaultProvider)
	}
}
