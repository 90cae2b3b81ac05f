package directory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

const (
	DefaultSize = 512
	DefaultTTL  = 5 * time.Minute
)

// Source is the authoritative directory, usually storage.TeamRepository.
type Source interface {
	Search(ctx context.Context, q string, limit int) ([]model.TeamMember, error)
	GetByID(ctx context.Context, id string) (model.TeamMember, error)
}

// Cache keeps recently looked-up members in memory. Lookups by id are
// served from the cache; searches always hit the source and refresh the
// entries they return. Errors are never cached.
type Cache struct {
	src     Source
	members *expirable.LRU[string, model.TeamMember]
}

func NewCache(src Source, size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		src:     src,
		members: expirable.NewLRU[string, model.TeamMember](size, nil, ttl),
	}
}

func (c *Cache) GetByID(ctx context.Context, id string) (model.TeamMember, error) {
	if m, ok := c.members.Get(id); ok {
		return m, nil
	}
	m, err := c.src.GetByID(ctx, id)
	if err != nil {
		return model.TeamMember{}, err
	}
	c.members.Add(id, m)
	return m, nil
}

func (c *Cache) Search(ctx context.Context, q string, limit int) ([]model.TeamMember, error) {
	members, err := c.src.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		c.members.Add(m.ID, m)
	}
	return members, nil
}

func (c *Cache) Len() int {
	return c.members.Len()
}
