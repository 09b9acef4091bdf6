// Package cache memoizes scrape results for a short time so repeated
// requests do not spend provider quota twice.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gauthierbraillon/reelscout/internal/scrape"
)

// DefaultTTL is how long results stay fresh.
const DefaultTTL = 5 * time.Minute

// Backends accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Store holds opaque values with a per-entry lifetime.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options selects and sizes a Store.
type Options struct {
	Backend    string
	MaxEntries int
	RedisURL   string
}

// Open builds the configured store. It returns nil for BackendNone.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		m, err := NewMemory(opts.MaxEntries)
		if err != nil {
			return nil, err
		}
		return m, nil
	case BackendRedis:
		r, err := NewRedis(opts.RedisURL)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (use none, memory or redis)", opts.Backend)
	}
}

// Key generates a cache key from every request field that changes the
// result. Debug only adds a trace to failures and is left out.
func Key(provider string, req scrape.Request) string {
	fields := []string{
		provider,
		string(req.Method),
		strings.ToLower(req.Target),
		string(req.Feed),
		strconv.Itoa(req.MaxItems),
		strconv.Itoa(req.MaxRequests),
		strconv.Itoa(req.MaxAgeDays),
		strconv.FormatInt(req.MinPlays, 10),
		strconv.FormatInt(req.MinLikes, 10),
		strconv.FormatInt(req.MinComments, 10),
		strconv.FormatBool(req.IncludeUndated),
	}
	h := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return "scrape:" + hex.EncodeToString(h[:])
}

// ProfileKey is the key of a profile summary.
func ProfileKey(provider, username string) string {
	return "profile:" + provider + ":" + strings.ToLower(username)
}
