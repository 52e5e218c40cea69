package cache

import (
	"os"
	"time"

	"timer-service/config"

	utilscache "github.com/umakantv/go-utils/cache"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// Store is the byte-oriented cache used by the services.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(keys ...string)
}

// InitializeCache connects the configured cache backend and exits the
// process when it is unreachable.
func InitializeCache(cfg config.CacheConfig) utilscache.Cache {
	c, err := utilscache.New(utilscache.Config{
		Type:          cfg.Type,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Error("Failed to initialize cache", zap.Error(err), zap.String("type", cfg.Type))
		os.Exit(1)
	}
	logger.Info("Cache initialized", zap.String("type", cfg.Type))
	return c
}

// New wraps c so every entry expires after ttl.
func New(c utilscache.Cache, ttl time.Duration) Store {
	return &store{c: c, ttl: ttl}
}

type store struct {
	c   utilscache.Cache
	ttl time.Duration
}

func (s *store) Get(key string) ([]byte, bool) {
	v, err := s.c.Get(key)
	if err != nil {
		return nil, false
	}
	// Redis hands values back as strings, the memory backend as stored.
	switch b := v.(type) {
	case []byte:
		return b, true
	case string:
		return []byte(b), true
	}
	return nil, false
}

func (s *store) Set(key string, value []byte) {
	s.c.Set(key, value, s.ttl)
}

func (s *store) Delete(keys ...string) {
	for _, k := range keys {
		s.c.Delete(k)
	}
}
