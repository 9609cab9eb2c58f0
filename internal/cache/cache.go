package cache

import (
	"errors"

	"post-assist-bot/internal/database"
	"post-assist-bot/internal/logger"

	"github.com/allegro/bigcache/v3"
	"github.com/goccy/go-json"
)

func GetState(cache *bigcache.BigCache, sessionID string) Session {
	var session Session

	b, err := cache.Get(sessionID)
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			logger.Warning("Error while read state from cache", err)
		}
		logger.Debug("No state in cache for " + sessionID)
		return Session{State: database.IDLE}
	}

	if err := json.Unmarshal(b, &session); err != nil {
		logger.Warning("Error while decoding state", err)
		return Session{State: database.IDLE}
	}

	return session
}

// ChangeCache stores the session; an empty session removes the key.
func (s Session) ChangeCache(cache *bigcache.BigCache, sessionID string) error {
	if s.IsEmpty() {
		err := cache.Delete(sessionID)
		if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			logger.Warning("Error while delete state from cache", err)
			return err
		}
		return nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		logger.Warning("Error while change state to cache", err)
		return err
	}

	err = cache.Set(sessionID, data)
	logger.Debug("Write state to cache result")
	if err != nil {
		logger.Warning("Error while write state to cache", err)
		return err
	}

	return nil
}
