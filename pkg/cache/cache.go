/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package cache wraps patrickmn/go-cache with the TTL tiers this system's
// components share and a domain-prefixed invalidation helper, grounded on
// the teacher's pkg/cache package.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	// ShortTTL covers fast-moving reads, e.g. an in-flight Run's step
	// status.
	ShortTTL = 60 * time.Second
	// MediumTTL covers a validator report or solver diagnostics for the
	// duration of an autonomous-loop iteration.
	MediumTTL = 5 * time.Minute
	// LongTTL covers a published schedule between autonomous-loop runs.
	LongTTL = time.Hour
	// ExtendedTTL covers rarely-changing reference data such as a rotation
	// template catalog.
	ExtendedTTL = 24 * time.Hour

	// DefaultCleanupInterval triggers lazy eviction at this interval.
	DefaultCleanupInterval = time.Minute
)

// Cache wraps a go-cache instance, adding prefix-scoped invalidation for
// domains that need to drop every key sharing a namespace (e.g. all
// entries for one schedule Run) without enumerating them individually.
type Cache struct {
	store *gocache.Cache
}

// New builds a Cache evicting entries ttl after their last write, checked
// every DefaultCleanupInterval.
func New(ttl time.Duration) *Cache {
	return &Cache{store: gocache.New(ttl, DefaultCleanupInterval)}
}

// Set stores value under key with the Cache's default ttl.
func (c *Cache) Set(key string, value any) {
	c.store.SetDefault(key, value)
}

// SetWithTTL stores value under key with an explicit ttl, overriding the
// Cache's default.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

// Get returns the cached value and whether it was present and unexpired.
func (c *Cache) Get(key string) (any, bool) {
	return c.store.Get(key)
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// InvalidatePrefix deletes every key beginning with prefix, e.g. dropping
// all cache entries for a given Run ID ("run:<id>:") in one call.
func (c *Cache) InvalidatePrefix(prefix string) {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}
}

// ItemCount reports the number of stored entries, which can include
// expired entries not yet removed by the janitor, exposed for the
// connection/cache pool monitor's bookkeeping.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
