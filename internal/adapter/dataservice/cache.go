package dataservice

import (
	"container/list"
	"context"
	"sync"

	"github.com/couchcryptid/hazard-navigator/internal/domain"
	"github.com/couchcryptid/hazard-navigator/internal/observability"
)

// RouteFetcher searches for a route between two "lng,lat" points.
type RouteFetcher interface {
	FetchRoute(ctx context.Context, start, goal string) (domain.Route, error)
}

// CachedRouter wraps a RouteFetcher with an in-memory LRU cache.
type CachedRouter struct {
	inner   RouteFetcher
	cache   *lruCache[domain.Route]
	metrics *observability.Metrics
}

// NewCachedRouter creates a cache decorator around a route fetcher.
func NewCachedRouter(inner RouteFetcher, maxEntries int, metrics *observability.Metrics) *CachedRouter {
	return &CachedRouter{
		inner:   inner,
		cache:   newLRUCache[domain.Route](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedRouter) FetchRoute(ctx context.Context, start, goal string) (domain.Route, error) {
	key := start + "|" + goal
	if route, ok := c.cache.get(key); ok {
		c.metrics.RouteCache.WithLabelValues("hit").Inc()
		return route, nil
	}
	c.metrics.RouteCache.WithLabelValues("miss").Inc()

	route, err := c.inner.FetchRoute(ctx, start, goal)
	if err != nil {
		return route, err
	}
	// Empty answers are not cached so a later search can succeed.
	if !route.Empty() {
		c.cache.put(key, route)
	}
	return route, nil
}

// lruCache is a small thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type lruEntry[V any] struct {
	key   string
	value V
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry[V]).value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*lruEntry[V]).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry[V]).key)
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
