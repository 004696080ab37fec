package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Config is the resolved application configuration: built-in defaults,
// overridden by the YAML config file, overridden by environment variables,
// validated once at load time.
type Config struct {
	Debug    bool            `mapstructure:"debug"`
	JSON     bool            `mapstructure:"json"`
	Database DatabaseConfig  `mapstructure:"database"`
	Embed    EmbeddingConfig `mapstructure:"embedding"`
	Matching MatchingConfig  `mapstructure:"matching"`
	Server   ServerConfig    `mapstructure:"server"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type EmbeddingConfig struct {
	Provider     string       `mapstructure:"provider"`
	Model        string       `mapstructure:"model"`
	MaxChars     int          `mapstructure:"max-chars"`
	JobTextLimit int          `mapstructure:"job-text-limit"`
	Ollama       OllamaConfig `mapstructure:"ollama"`
	Gemini       GeminiConfig `mapstructure:"gemini"`
}

type OllamaConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

func (c *OllamaConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

func (c *OllamaConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	MaxRetries int    `mapstructure:"max-retries"`
	Timeout    int    `mapstructure:"timeout"` // seconds
}

type MatchingConfig struct {
	MaxMatches    int `mapstructure:"max-matches"`
	TopK          int `mapstructure:"top-k"`
	SampleResumes int `mapstructure:"sample-resumes"`
	SampleJobs    int `mapstructure:"sample-jobs"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "resume_matcher")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("embedding.provider", ProviderOllama)
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.max-chars", 30000)
	v.SetDefault("embedding.job-text-limit", 8000)
	v.SetDefault("embedding.ollama.host", "localhost")
	v.SetDefault("embedding.ollama.port", 11434)
	v.SetDefault("embedding.ollama.timeout", 30)
	v.SetDefault("embedding.gemini.max-retries", 3)
	v.SetDefault("embedding.gemini.timeout", 90)

	v.SetDefault("matching.max-matches", 50)
	v.SetDefault("matching.top-k", 10)
	v.SetDefault("matching.sample-resumes", 10)
	v.SetDefault("matching.sample-jobs", 100)

	v.SetDefault("server.port", ":8080")
}

// Load resolves the configuration from defaults, an optional YAML file and
// RESUME_MATCHER_* environment variables, in that precedence order.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("resume-matcher")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("RESUME_MATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// Running without a config file is fine; an unparseable one is not.
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Embed.Provider {
	case ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("unsupported embedding provider: %q", c.Embed.Provider)
	}
	if strings.TrimSpace(c.Embed.Model) == "" {
		return errors.New("embedding.model is required")
	}
	if c.Embed.Provider == ProviderGemini && strings.TrimSpace(c.Embed.Gemini.APIKey) == "" {
		return errors.New("embedding.gemini.api-key is required for the gemini provider (RESUME_MATCHER_EMBEDDING_GEMINI_API_KEY)")
	}
	if c.Embed.MaxChars <= 0 || c.Embed.JobTextLimit <= 0 {
		return errors.New("embedding text limits must be positive")
	}
	return nil
}
