package teamhub

import (
	"fmt"
	"time"
)

// CacheType selects the cache backend.
type CacheType string

const (
	// CacheTypeMemory is the in-process cache.
	CacheTypeMemory CacheType = "memory"
	// CacheTypeNATS is the NATS JetStream key-value cache.
	CacheTypeNATS CacheType = "nats"
	// CacheTypeNone disables caching.
	CacheTypeNone CacheType = "none"
)

// DefaultCacheSize bounds the in-memory cache entry count.
const DefaultCacheSize = 1000

// CacheConfig configures a cache backend.
type CacheConfig struct {
	// Type is the backend type.
	Type CacheType
	// Memory configures the memory backend. Nil uses defaults.
	Memory *MemoryCacheConfig
	// NATS configures the NATS KV backend. Required for CacheTypeNATS.
	NATS *NATSKVConfig
}

// MemoryCacheConfig configures the memory backend.
type MemoryCacheConfig struct {
	// MaxSize is the maximum number of entries.
	MaxSize int
	// TTL bounds entry lifetime. Zero keeps entries for the process lifetime,
	// the conditional-request default.
	TTL time.Duration
}

// DefaultCacheConfig returns the default (memory-backed) cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type:   CacheTypeMemory,
		Memory: &MemoryCacheConfig{MaxSize: DefaultCacheSize},
	}
}

// NewCacheFromConfig creates a cache backend from configuration.
func NewCacheFromConfig(config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory:
		memCfg := config.Memory
		if memCfg == nil {
			memCfg = &MemoryCacheConfig{MaxSize: DefaultCacheSize}
		}

		if memCfg.TTL > 0 {
			return NewMemoryCacheWithTTL(memCfg.MaxSize, memCfg.TTL), nil
		}

		return NewMemoryCache(memCfg.MaxSize), nil

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS)

	case CacheTypeNone:
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}
