package assessment

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/2beens/gymfatigue/internal/fatigue/hierarchical"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	megabyte           = 1024 * 1024
	minModelCacheBytes = 512 * 1024
)

// ModelCache keeps built personalization models per user so a session does
// not rebuild the model on every assessment.
type ModelCache struct {
	cache *freecache.Cache
	ttl   time.Duration
}

func NewModelCache(sizeMB int, ttl time.Duration) *ModelCache {
	size := sizeMB * megabyte
	if size < minModelCacheBytes {
		size = minModelCacheBytes
	}
	return &ModelCache{
		cache: freecache.NewCache(size),
		ttl:   ttl,
	}
}

func modelCacheKey(userID string) []byte {
	return []byte("model::" + userID)
}

// Get returns a copy of the cached model for userID.
func (c *ModelCache) Get(userID string) (*hierarchical.Model, bool) {
	raw, err := c.cache.Get(modelCacheKey(userID))
	if err != nil {
		if !errors.Is(err, freecache.ErrNotFound) {
			log.Errorf("model cache get [%s]: %s", userID, err)
		}
		return nil, false
	}

	var model hierarchical.Model
	if err := json.Unmarshal(raw, &model); err != nil {
		log.Errorf("model cache unmarshal [%s]: %s", userID, err)
		c.Invalidate(userID)
		return nil, false
	}
	return &model, true
}

func (c *ModelCache) Set(model *hierarchical.Model) error {
	raw, err := json.Marshal(model)
	if err != nil {
		return err
	}
	return c.cache.Set(modelCacheKey(model.UserID), raw, int(c.ttl.Seconds()))
}

func (c *ModelCache) Invalidate(userID string) {
	c.cache.Del(modelCacheKey(userID))
}
