package route

import (
	"fmt"

	"github.com/bluele/gcache"
	"github.com/railseat/pkg/railway/models"
)

// Cache memoizes route indexes per train. Routes are immutable once a train is
// created, so entries never go stale and are only evicted for size.
type Cache struct {
	indexes gcache.Cache
}

func NewCache(size int) *Cache {
	if size <= 0 {
		size = 1
	}
	return &Cache{
		indexes: gcache.New(size).LRU().Build(),
	}
}

// Index returns the memoized index for train, building it on first use.
func (c *Cache) Index(train models.Train) (*Index, error) {
	if cached, err := c.indexes.Get(train.ID); err == nil {
		return cached.(*Index), nil
	}

	idx, err := New(train.Route)
	if err != nil {
		return nil, fmt.Errorf("indexing route of train %d: %w", train.ID, err)
	}

	if err := c.indexes.Set(train.ID, idx); err != nil {
		return nil, fmt.Errorf("caching route of train %d: %w", train.ID, err)
	}

	return idx, nil
}
