package shoveler

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/dbarchive/myisam-shoveler/parser"
)

// StateCache memoizes decoded table states by index path so follow-mode
// rescans skip the index walk until the TTL lapses. The index file of a live
// table changes rarely compared to its data file.
type StateCache struct {
	cache *ttlcache.Cache[string, *parser.TableState]
}

// NewStateCache builds a cache whose entries expire after ttl.
func NewStateCache(ttl time.Duration) *StateCache {
	cache := ttlcache.New[string, *parser.TableState](
		ttlcache.WithTTL[string, *parser.TableState](ttl),
	)
	go cache.Start()
	return &StateCache{cache: cache}
}

// Get returns the cached state for indexPath, decoding it on a miss.
func (sc *StateCache) Get(indexPath string) (*parser.TableState, error) {
	if item := sc.cache.Get(indexPath); item != nil {
		return item.Value(), nil
	}
	state, err := parser.DecodeIndex(indexPath)
	if err != nil {
		return nil, err
	}
	sc.cache.Set(indexPath, state, ttlcache.DefaultTTL)
	return state, nil
}

// Stop halts the background expiration loop.
func (sc *StateCache) Stop() {
	sc.cache.Stop()
}
