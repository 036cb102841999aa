package config

import "time"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Transport  TransportConfig  `mapstructure:"transport"`
	Membership MembershipConfig `mapstructure:"membership"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Address        string   `mapstructure:"address" validate:"required"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
	// InternalToken enables POST /internal/notify when set.
	InternalToken   string                `mapstructure:"internalToken"`
	ShutdownTimeout time.Duration         `mapstructure:"shutdownTimeout" validate:"gt=0"`
	ConnectionLimit ConnectionLimitConfig `mapstructure:"connectionLimit"`
}

type ConnectionLimitConfig struct {
	MaxPerUser int    `mapstructure:"maxPerUser" validate:"gte=0"`
	Mode       string `mapstructure:"mode" validate:"oneof=reject cycle"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwtSecret" validate:"required"`
	CookieName string        `mapstructure:"cookieName" validate:"required"`
	Leeway     time.Duration `mapstructure:"leeway" validate:"gte=0"`
}

type TransportConfig struct {
	SendBuffer     int           `mapstructure:"sendBuffer" validate:"gte=0"`
	MaxMessageSize int64         `mapstructure:"maxMessageSize" validate:"gte=0"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout" validate:"gte=0"`
	PingInterval   time.Duration `mapstructure:"pingInterval" validate:"gte=0"`
	PingTimeout    time.Duration `mapstructure:"pingTimeout" validate:"gte=0"`
}

type MembershipConfig struct {
	MongoURI   string        `mapstructure:"mongoURI" validate:"required"`
	Database   string        `mapstructure:"database" validate:"required"`
	Collection string        `mapstructure:"collection" validate:"required"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}
