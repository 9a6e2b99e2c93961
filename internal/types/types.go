package types

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetAuthConfig() AuthConfig
	GetCORSConfig() CORSConfig
	GetPerformanceConfig() PerformanceConfig
	GetLogConfig() LogConfig
	GetDatabaseConfig() DatabaseConfig
	GetEncryptionKey() string
	GetEffectiveServerConfig() ServerConfig
	GetRedisDSN() string
	GetProviderConfig() ProviderConfig
	GetGatewayConfig() GatewayConfig
	GetMonitorConfig() MonitorConfig
	Validate() error
	DisplayServerConfig()
	ReloadConfig() error
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port                    int    `json:"port"`
	Host                    string `json:"host"`
	ReadTimeout             int    `json:"read_timeout"`
	WriteTimeout            int    `json:"write_timeout"`
	IdleTimeout             int    `json:"idle_timeout"`
	GracefulShutdownTimeout int    `json:"graceful_shutdown_timeout"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Key string `json:"key"`
}

// CORSConfig represents CORS configuration
type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// PerformanceConfig represents performance configuration
type PerformanceConfig struct {
	MaxConcurrentRequests int `json:"max_concurrent_requests"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	EnableFile bool   `json:"enable_file"`
	FilePath   string `json:"file_path"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

// ProviderConfig holds credentials and model choices for the AI backends.
// A backend counts as configured when its API key is non-empty.
type ProviderConfig struct {
	OpenAIAPIKey    string `json:"-"`
	OpenAIBaseURL   string `json:"openai_base_url"`
	OpenAIModel     string `json:"openai_model"`
	GeminiAPIKey    string `json:"-"`
	GeminiModel     string `json:"gemini_model"`
	DefaultProvider string `json:"default_provider"`
}

// GatewayConfig holds timeouts for outbound WordPress REST calls.
// Probe timeouts are shorter than action timeouts so connection tests
// and status checks fail fast.
type GatewayConfig struct {
	ConnectTimeout        int    `json:"connect_timeout"`
	RequestTimeout        int    `json:"request_timeout"`
	ProbeTimeout          int    `json:"probe_timeout"`
	IdleConnTimeout       int    `json:"idle_conn_timeout"`
	MaxIdleConns          int    `json:"max_idle_conns"`
	MaxIdleConnsPerHost   int    `json:"max_idle_conns_per_host"`
	ResponseHeaderTimeout int    `json:"response_header_timeout"`
	UserAgent             string `json:"user_agent"`
}

// MonitorConfig controls the background site health monitor.
type MonitorConfig struct {
	Enabled               bool `json:"enabled"`
	IntervalMinutes       int  `json:"interval_minutes"`
	AlertCooldownMinutes  int  `json:"alert_cooldown_minutes"`
	StatusCacheTTLSeconds int  `json:"status_cache_ttl_seconds"`
	ProbeConcurrency      int  `json:"probe_concurrency"`
}
