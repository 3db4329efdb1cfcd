package config

import (
	"github.com/spf13/viper"

	"github.com/graindesk/grainbroker/internal/db"
)

// Config holds the full server configuration.
type Config struct {
	Database db.Config
	Server   ServerConfig
	OpenAI   OpenAIConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string
}

// OpenAIConfig holds the analytics collaborator settings. An empty APIKey
// disables the collaborator; insights then carry baseline metrics only.
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// Load reads config.yaml from configPath, with environment overrides like
// GRAINBROKER_DATABASE_HOST or GRAINBROKER_OPENAI_API_KEY. Missing file is
// fine; defaults plus env apply.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Database: db.DefaultConfig(),
		Server:   ServerConfig{Addr: ":8080"},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("GRAINBROKER")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("openai.api_key")
	v.BindEnv("openai.model")

	_ = v.ReadInConfig()

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("openai.api_key") {
		cfg.OpenAI.APIKey = v.GetString("openai.api_key")
	}
	if v.IsSet("openai.model") {
		cfg.OpenAI.Model = v.GetString("openai.model")
	}

	return cfg, nil
}
