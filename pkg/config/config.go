package config

import "time"

// Gateway definition chat_gateway YAML structure
type Gateway struct {
	Port        string        `mapstructure:"port"`
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
}

// Worker definition persist_worker YAML structure
type Worker struct {
	FlushInterval time.Duration `mapstructure:"flush_interval"`

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	GroupID       string   `mapstructure:"group_id"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	RedisDB int `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}
