package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/ensemble/internal/agent"
	rediscache "github.com/davidbz/ensemble/internal/cache/redis"
	"github.com/davidbz/ensemble/internal/model"
	"github.com/davidbz/ensemble/internal/provider/anthropic"
	"github.com/davidbz/ensemble/internal/provider/cohere"
	"github.com/davidbz/ensemble/internal/provider/echo"
	"github.com/davidbz/ensemble/internal/provider/gemini"
	"github.com/davidbz/ensemble/internal/provider/openai"
)

// Config represents the platform configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Model     model.Config
	Agent     agent.Config
	Cache     rediscache.Config
	OpenAI    openai.Config
	Anthropic anthropic.Config
	Cohere    cohere.Config
	Gemini    gemini.Config
	Echo      echo.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// DepConfig is used for dependency injection with dig. Fields carry
// explicit names because the sub-configs share the type name Config;
// dig resolves them by type, not by field name.
type DepConfig struct {
	dig.Out
	Server    *ServerConfig
	CORS      *CORSConfig
	Model     *model.Config
	Agent     *agent.Config
	Cache     *rediscache.Config
	OpenAI    *openai.Config
	Anthropic *anthropic.Config
	Cohere    *cohere.Config
	Gemini    *gemini.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Model,
		&cfg.Agent,
		&cfg.Cache,
		&cfg.OpenAI,
		&cfg.Anthropic,
		&cfg.Cohere,
		&cfg.Gemini,
	}
}
