package database

import (
	"time"
)

// Connection definition sql setting
type Connection struct {
	ConnectStr string

	RetryCount    int
	RetryInterval time.Duration
}

// KafkaConnection definition kafka
type KafkaConnection struct {
	Brokers       []string
	Topic         string
	GroupID       string
	RetryCount    int
	RetryInterval time.Duration
}
