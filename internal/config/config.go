package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	TTS      TTSConfig
	Media    MediaConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret    string
	APIKeyHeader string
}

type TTSConfig struct {
	Backend string // "google", "openai" or "piper"

	// google (Translate TTS endpoint)
	GoogleBaseURL string

	// openai
	OpenAIKey   string
	OpenAIModel string
	OpenAIVoice string

	// piper
	PiperBinPath string // default: "piper"
	PiperModel   string // required when backend=piper

	// Language used when a request carries none. Empty means detect
	// from the text itself.
	DefaultLanguage string
	MaxTextLength   int
}

type MediaConfig struct {
	Root     string // media root directory, default "media"
	VoiceDir string // audio subdirectory under the root, default "voice"
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxTextLen, err := getEnvInt("TTS_MAX_TEXT_LENGTH", 700)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_MAX_TEXT_LENGTH: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			APIKeyHeader: getEnv("API_KEY_HEADER", "X-API-Key"),
		},
		TTS: TTSConfig{
			Backend:         getEnv("TTS_BACKEND", "google"),
			GoogleBaseURL:   getEnv("TTS_GOOGLE_BASE_URL", ""),
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("TTS_OPENAI_MODEL", ""),
			OpenAIVoice:     getEnv("TTS_OPENAI_VOICE", ""),
			PiperBinPath:    getEnv("TTS_PIPER_BIN", "piper"),
			PiperModel:      getEnv("TTS_PIPER_MODEL", ""),
			DefaultLanguage: getEnv("TTS_DEFAULT_LANGUAGE", ""),
			MaxTextLength:   maxTextLen,
		},
		Media: MediaConfig{
			Root:     getEnv("MEDIA_ROOT", "media"),
			VoiceDir: getEnv("VOICE_DIR", "voice"),
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}
