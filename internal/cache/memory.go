package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache.
// Útil para desarrollo y testing.
type memoryClient struct {
	prefix string
	c      *gocache.Cache

	// go-cache no tiene increment atómico con creación, se serializa acá.
	incMu sync.Mutex
}

// NewMemory crea un cliente de cache en memoria.
func NewMemory(prefix string) Client {
	return &memoryClient{
		prefix: prefix,
		c:      gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (c *memoryClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *memoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := c.c.Get(c.key(key))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (c *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	c.c.Set(c.key(key), value, ttl)
	return nil
}

func (c *memoryClient) Delete(ctx context.Context, key string) error {
	c.c.Delete(c.key(key))
	return nil
}

func (c *memoryClient) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.c.Get(c.key(key))
	return ok, nil
}

func (c *memoryClient) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	c.incMu.Lock()
	defer c.incMu.Unlock()

	k := c.key(key)
	v, ok := c.c.Get(k)
	if !ok {
		if ttl == 0 {
			ttl = gocache.NoExpiration
		}
		c.c.Set(k, "1", ttl)
		return 1, nil
	}

	s, _ := v.(string)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		n = 0
	}
	n++
	// Conserva el TTL restante de la entrada original.
	if _, exp, found := c.c.GetWithExpiration(k); found && !exp.IsZero() {
		c.c.Set(k, strconv.FormatInt(n, 10), time.Until(exp))
	} else {
		c.c.Set(k, strconv.FormatInt(n, 10), gocache.NoExpiration)
	}
	return n, nil
}

func (c *memoryClient) Ping(ctx context.Context) error { return nil }

func (c *memoryClient) Close() error {
	c.c.Flush()
	return nil
}
