package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Backend names accepted by the factory.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// FactoryConfig selects and parameterizes a gateway backend.
type FactoryConfig struct {
	Backend        string
	DataDir        string
	RedisAddr      string
	RedisKeyPrefix string
}

// NewGateway builds the configured gateway. The file backend is the default
// for an empty backend name.
func NewGateway(_ context.Context, cfg FactoryConfig) (Gateway, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileGateway(cfg.DataDir)
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedisGateway(client, cfg.RedisKeyPrefix), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
