package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "GOPRESENCE"

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowedOrigins", []string{})
	v.SetDefault("server.internalToken", "")
	v.SetDefault("server.shutdownTimeout", "10s")
	v.SetDefault("server.connectionLimit.maxPerUser", 0)
	v.SetDefault("server.connectionLimit.mode", "reject")

	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.cookieName", "accessToken")
	v.SetDefault("auth.leeway", "0s")

	v.SetDefault("transport.sendBuffer", 256)
	v.SetDefault("transport.maxMessageSize", 32768)
	v.SetDefault("transport.writeTimeout", "10s")
	v.SetDefault("transport.pingInterval", "25s")
	v.SetDefault("transport.pingTimeout", "20s")

	v.SetDefault("membership.mongoURI", "")
	v.SetDefault("membership.database", "chat")
	v.SetDefault("membership.collection", "chats")
	v.SetDefault("membership.timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from a file and environment variables.
// Every key can be overridden with GOPRESENCE_<SECTION>_<KEY>, e.g. GOPRESENCE_AUTH_JWTSECRET.
func Load(logger *slog.Logger, fileName string, paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logger.Warn("Config file not found. ignoring error and relying on defaults/env vars")
	} else {
		logger.Info("Config file loaded", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
