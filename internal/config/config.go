package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RedisAddr      string        `mapstructure:"redis_addr"`
	PasswordLength int           `mapstructure:"password_length"`
	Judge0URL      string        `mapstructure:"judge0_url"`
	Judge0Key      string        `mapstructure:"judge0_key"`
	ExecTimeout    time.Duration `mapstructure:"exec_timeout"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8000)
	v.SetDefault("read_limit", 65536)
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("password_length", 8)
	v.SetDefault("judge0_url", "http://localhost:2358")
	v.SetDefault("judge0_key", "")
	v.SetDefault("exec_timeout", "30s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
