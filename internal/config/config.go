package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig selects the store. Driver is "mongo" or "memory".
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URI    string `mapstructure:"uri"`
	Name   string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Enabled reports whether calendar exports can be uploaded.
func (c S3Config) Enabled() bool {
	return c.BucketName != ""
}

// JWTConfig holds the shared secret used to verify bearer tokens.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // "development" or "production"
}

// ScheduleConfig tunes instance generation.
type ScheduleConfig struct {
	LookaheadDays     int           `mapstructure:"lookahead_days"`
	Workers           int           `mapstructure:"workers"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
	Interval          time.Duration `mapstructure:"interval"`
}

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Nested keys map to env vars, e.g. schedule.lookahead_days -> SCHEDULE_LOOKAHEAD_DAYS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	// A missing file is fine; defaults and env vars still apply.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	return config, config.Validate()
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("database.driver", DriverMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "workout_planner")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("log.mode", "development")
	v.SetDefault("schedule.lookahead_days", 14)
	v.SetDefault("schedule.workers", 4)
	v.SetDefault("schedule.generation_timeout", "30s")
	v.SetDefault("schedule.interval", "1h")
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverMongo, DriverMemory:
	default:
		return errors.New("database.driver must be \"mongo\" or \"memory\"")
	}
	if c.Schedule.LookaheadDays < 0 {
		return errors.New("schedule.lookahead_days must not be negative")
	}
	if c.Schedule.Workers <= 0 {
		return errors.New("schedule.workers must be positive")
	}
	if c.Schedule.Interval <= 0 {
		return errors.New("schedule.interval must be positive")
	}
	return nil
}
