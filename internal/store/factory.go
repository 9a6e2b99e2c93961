package store

import (
	"fmt"

	"wp-pilot/internal/types"

	"github.com/sirupsen/logrus"
)

// NewStore creates a Store based on configuration. A configured Redis DSN
// selects the Redis backend; otherwise the in-memory store is used.
func NewStore(configManager types.ConfigManager) (Store, error) {
	redisDSN := configManager.GetRedisDSN()
	if redisDSN == "" {
		logrus.Debug("No Redis DSN configured, using memory store")
		return NewMemoryStore(), nil
	}

	redisStore, err := NewRedisStore(redisDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logrus.Debug("Using redis store")
	return redisStore, nil
}
