package postal

import (
	"errors"

	"post-assist-bot/internal/logger"

	"github.com/allegro/bigcache/v3"
	"github.com/goccy/go-json"
)

// OfficeCache holds successful lookups by pincode. Freshness is decided by
// the resolver from CacheEntry.FetchedAt, not by the backing store.
type OfficeCache interface {
	Get(pincode string) (CacheEntry, bool)
	Set(entry CacheEntry)
}

type BigOfficeCache struct {
	cache *bigcache.BigCache
}

func NewOfficeCache(cache *bigcache.BigCache) *BigOfficeCache {
	return &BigOfficeCache{cache: cache}
}

func (c *BigOfficeCache) Get(pincode string) (CacheEntry, bool) {
	var entry CacheEntry

	b, err := c.cache.Get(pincode)
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			logger.Warning("Error while read pincode cache", pincode, err)
		}
		return entry, false
	}

	if err := json.Unmarshal(b, &entry); err != nil {
		logger.Warning("Error while decoding pincode cache", pincode, err)
		return entry, false
	}

	return entry, true
}

// Set overwrites any previous entry; concurrent writers for the same
// pincode race and the last one wins.
func (c *BigOfficeCache) Set(entry CacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		logger.Warning("Error while encoding pincode cache", entry.Pincode, err)
		return
	}

	if err := c.cache.Set(entry.Pincode, data); err != nil {
		logger.Warning("Error while write pincode cache", entry.Pincode, err)
	}
}
