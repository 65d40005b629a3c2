package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Leader   LeaderConfig   `mapstructure:"leader"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Instance InstanceConfig `mapstructure:"instance"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type RealtimeConfig struct {
	Port int `mapstructure:"port"`
	// Bridge enables the redis room bridge so rooms span instances.
	Bridge bool `mapstructure:"bridge"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LeaderConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type ReminderConfig struct {
	// Cron spec for the pending interest reminder, robfig/cron format.
	Schedule string `mapstructure:"schedule"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("realtime.port", 8081)
	viper.SetDefault("realtime.bridge", false)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("mysql.dsn", "viewora_user:viewora_pass@tcp(localhost:3306)/viewora_db?parseTime=true")
	viper.SetDefault("mysql.max_open_conns", 25)
	viper.SetDefault("mysql.max_idle_conns", 10)
	viper.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("leader.ttl", 30*time.Second)
	viper.SetDefault("reminder.schedule", "0 0 9 * * *")
	viper.SetDefault("instance.id", "deal-service-1")
}

func bindEnv() {
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("realtime.port", "REALTIME_PORT")
	viper.BindEnv("realtime.bridge", "REALTIME_BRIDGE")
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")
	viper.BindEnv("mysql.dsn", "MYSQL_DSN")
	viper.BindEnv("mysql.max_open_conns", "MYSQL_MAX_OPEN_CONNS")
	viper.BindEnv("mysql.max_idle_conns", "MYSQL_MAX_IDLE_CONNS")
	viper.BindEnv("mysql.conn_max_lifetime", "MYSQL_CONN_MAX_LIFETIME")
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("leader.ttl", "LEADER_TTL")
	viper.BindEnv("reminder.schedule", "REMINDER_SCHEDULE")
	viper.BindEnv("instance.id", "INSTANCE_ID")
}

func unmarshal() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required")
	}

	return &config, nil
}

// Load searches the usual locations for an optional config file; defaults
// and environment variables cover everything else.
func Load() (*Config, error) {
	setDefaults()
	bindEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/viewora/")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, continue with defaults and environment variables
	}

	return unmarshal()
}

// LoadFromFile loads configuration from a specific file path. Unlike Load
// the file must exist.
func LoadFromFile(configPath string) (*Config, error) {
	setDefaults()
	bindEnv()

	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal()
}
