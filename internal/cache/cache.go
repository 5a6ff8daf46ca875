// Package cache provides the sniff-result cache. Lookups chain Redis
// when configured, an in-process TTL cache, and a plain map as the
// last resort, so a Redis outage only costs shared visibility.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"git.uuxo.net/uuxo/mime-resolver/internal/config"
)

var log = logrus.New()

// SetLogger replaces the package-level logger.
func SetLogger(l *logrus.Logger) { log = l }

const redisOpTimeout = 2 * time.Second

// Entry is one cached sniff result.
type Entry struct {
	Type     string `json:"type"`
	Strategy string `json:"strategy"`
}

type fallbackEntry struct {
	Entry
	at time.Time
}

// Store chains the cache backends. The zero value is a disabled store
// that misses on every lookup.
type Store struct {
	redisClient *redis.Client
	memory      *gocache.Cache
	fallback    map[string]fallbackEntry
	mu          sync.RWMutex
	ttl         time.Duration
	ticker      *time.Ticker
	enabled     bool
}

// Key returns the cache key for a content prefix.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// New builds a Store from cfg. A failed Redis connection is
// non-critical; the in-process backends still serve. A non-nil dialer
// constrains how the Redis backend connects.
func New(cfg *config.CacheConfig, redisCfg *config.RedisConfig, dialer *net.Dialer) (*Store, error) {
	if !cfg.Enabled {
		log.Info("Sniff cache disabled")
		return &Store{}, nil
	}

	ttl, err := time.ParseDuration(cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid cache ttl: %w", err)
	}
	cleanup, err := time.ParseDuration(cfg.CleanupInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid cache cleanup_interval: %w", err)
	}

	s := &Store{
		memory:   gocache.New(ttl, cleanup),
		fallback: make(map[string]fallbackEntry),
		ttl:      ttl,
		ticker:   time.NewTicker(cleanup),
		enabled:  true,
	}

	if redisCfg != nil && redisCfg.RedisEnabled {
		opts := &redis.Options{
			Addr:     redisCfg.RedisAddr,
			Password: redisCfg.RedisPassword,
			DB:       redisCfg.RedisDBIndex,
		}
		if dialer != nil {
			opts.Dialer = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.DialContext(ctx, network, addr)
			}
		}
		client := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warnf("Sniff cache: Redis connection failed (non-critical): %v", err)
			client.Close()
		} else {
			s.redisClient = client
			log.Infof("Sniff cache: Redis backend initialized (%s)", redisCfg.RedisAddr)
		}
	}

	go s.cleanupRoutine()
	log.Infof("Sniff cache initialized: ttl=%s", ttl)
	return s, nil
}

// Get looks key up across the backends in order.
func (s *Store) Get(key string) (Entry, bool) {
	if !s.enabled || key == "" {
		return Entry{}, false
	}

	if s.redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		raw, err := s.redisClient.Get(ctx, "sniff:"+key).Result()
		cancel()
		if err == nil {
			var e Entry
			if json.Unmarshal([]byte(raw), &e) == nil {
				log.Debugf("Sniff cache hit (redis): %s", key[:12])
				return e, true
			}
		}
	}

	if v, found := s.memory.Get(key); found {
		if e, ok := v.(Entry); ok {
			log.Debugf("Sniff cache hit (memory): %s", key[:12])
			return e, true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if fe, ok := s.fallback[key]; ok && time.Since(fe.at) < s.ttl {
		return fe.Entry, true
	}
	return Entry{}, false
}

// Set stores e under key in every available backend.
func (s *Store) Set(key string, e Entry) {
	if !s.enabled || key == "" {
		return
	}

	if s.redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		if raw, err := json.Marshal(e); err == nil {
			s.redisClient.Set(ctx, "sniff:"+key, raw, s.ttl)
		}
		cancel()
	}

	s.memory.Set(key, e, s.ttl)

	s.mu.Lock()
	s.fallback[key] = fallbackEntry{Entry: e, at: time.Now()}
	s.mu.Unlock()
}

func (s *Store) cleanupRoutine() {
	for range s.ticker.C {
		s.mu.Lock()
		for key, fe := range s.fallback {
			if time.Since(fe.at) > s.ttl {
				delete(s.fallback, key)
			}
		}
		s.mu.Unlock()
	}
}

// Close releases the backends.
func (s *Store) Close() {
	if !s.enabled {
		return
	}
	s.ticker.Stop()
	if s.redisClient != nil {
		s.redisClient.Close()
	}
}
