// Package cache provides caching implementations for the risk service.
package cache

import (
	"fmt"

	"github.com/trustvault/riskd/internal/domain"
)

// New creates a new cache based on configuration.
// Community tier: in-process LRU. Pro tier: Redis.
func New(cfg domain.CacheConfig) (domain.Cache, error) {
	switch cfg.Type {
	case "memory":
		return NewLRUCache(cfg.LocalMaxSize), nil

	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}
