// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Configuration holds the complete service configuration.
type Configuration struct {
	Service       ServiceConfig
	Storage       StorageConfig
	Quota         QuotaConfig
	Voice         VoiceConfig
	Transcribe    TranscribeConfig
	Agent         AgentConfig
	Accounts      AccountsConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds service identity and ports.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	MetricsPort string
}

// StorageConfig selects and configures the usage ledger backend.
type StorageConfig struct {
	Backend string // "sqlite" or "redis"
	SQLite  SQLiteConfig
	Redis   RedisConfig
}

// SQLiteConfig holds sqlite backend settings.
type SQLiteConfig struct {
	Path string
}

// RedisConfig holds redis backend settings.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// QuotaConfig holds usage quota settings.
type QuotaConfig struct {
	FreeTierLimit int
	Window        time.Duration
}

// VoiceConfig holds voice capture settings.
type VoiceConfig struct {
	Backend      string // "auto", "stream" or "device"
	SampleRateHz int
	Channels     int
	BitRate      int
	DeviceDir    string // directory for device-session recording files
}

// TranscribeConfig holds transcription provider settings.
type TranscribeConfig struct {
	Provider string // "mock", "http" or "google"
	Endpoint string
	Timeout  time.Duration
}

// AgentConfig holds remote agent session settings.
type AgentConfig struct {
	Endpoint string
	Timeout  time.Duration
}

// AccountsConfig holds account/session store settings.
type AccountsConfig struct {
	Mode     string // "remote" or "local"
	Endpoint string
}

// KafkaConfig holds event publisher settings.
type KafkaConfig struct {
	Enabled          bool
	Brokers          []string
	TopicTasks       string
	TopicTranscripts string
	Principal        string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // "json" or "console"
}

// Load reads configuration from the environment, falling back to defaults
// when a variable is unset or unparsable.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-browser-assistant")

	return &Configuration{
		Service: ServiceConfig{
			Principal:   principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Storage: StorageConfig{
			Backend: envOrDefault("STORAGE_BACKEND", "sqlite"),
			SQLite: SQLiteConfig{
				Path: envOrDefault("SQLITE_PATH", "assistant.db"),
			},
			Redis: RedisConfig{
				Addr:         envOrDefault("REDIS_ADDR", "localhost:6379"),
				Password:     envOrDefault("REDIS_PASSWORD", ""),
				DB:           envOrDefaultInt("REDIS_DB", 0),
				DialTimeout:  envOrDefaultDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
				ReadTimeout:  envOrDefaultDuration("REDIS_READ_TIMEOUT", 3*time.Second),
				WriteTimeout: envOrDefaultDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			},
		},
		Quota: QuotaConfig{
			FreeTierLimit: envOrDefaultInt("QUOTA_FREE_TIER_LIMIT", 1),
			Window:        envOrDefaultDuration("QUOTA_WINDOW", 72*time.Hour),
		},
		Voice: VoiceConfig{
			Backend:      envOrDefault("VOICE_BACKEND", "auto"),
			SampleRateHz: envOrDefaultInt("VOICE_SAMPLE_RATE_HZ", 44100),
			Channels:     envOrDefaultInt("VOICE_CHANNELS", 2),
			BitRate:      envOrDefaultInt("VOICE_BIT_RATE", 128000),
			DeviceDir:    envOrDefault("VOICE_DEVICE_DIR", os.TempDir()),
		},
		Transcribe: TranscribeConfig{
			Provider: envOrDefault("TRANSCRIBE_PROVIDER", "mock"),
			Endpoint: envOrDefault("TRANSCRIBE_ENDPOINT", "https://toolkit.rork.com/stt/transcribe/"),
			Timeout:  envOrDefaultDuration("TRANSCRIBE_TIMEOUT", 30*time.Second),
		},
		Agent: AgentConfig{
			Endpoint: envOrDefault("AGENT_ENDPOINT", "http://localhost:8090/v1/agent"),
			Timeout:  envOrDefaultDuration("AGENT_TIMEOUT", 120*time.Second),
		},
		Accounts: AccountsConfig{
			Mode:     envOrDefault("ACCOUNTS_MODE", "local"),
			Endpoint: envOrDefault("ACCOUNTS_ENDPOINT", "http://localhost:8091/auth/v1"),
		},
		Kafka: KafkaConfig{
			Enabled:          envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:          envOrDefaultList("KAFKA_BROKERS", nil),
			TopicTasks:       envOrDefault("KAFKA_TOPIC_TASKS", "assistant.task.events"),
			TopicTranscripts: envOrDefault("KAFKA_TOPIC_TRANSCRIPTS", "assistant.voice.transcripts"),
			Principal:        envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
