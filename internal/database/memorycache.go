package database

import (
	"time"

	"post-assist-bot/internal/logger"

	"github.com/allegro/bigcache/v3"
	"github.com/gin-gonic/gin"
)

// NewInMemoryCache builds a bigcache whose entries are evicted after lifeWindow.
func NewInMemoryCache(lifeWindow time.Duration) (*bigcache.BigCache, error) {
	cnf := bigcache.DefaultConfig(lifeWindow)
	cnf.Shards = 64
	cnf.MaxEntriesInWindow = 10 * 1000
	cnf.CleanWindow = time.Minute
	cnf.Verbose = false

	return bigcache.NewBigCache(cnf)
}

func ConnectInMemoryCache(lifeWindow time.Duration) *bigcache.BigCache {
	cache, err := NewInMemoryCache(lifeWindow)
	if err != nil {
		logger.Crit(err)
	}
	return cache
}

func InjectInMemoryCache(key string, cache *bigcache.BigCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, cache)
	}
}
