package cache

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	gocache "github.com/patrickmn/go-cache"
	"github.com/zeebo/xxh3"
)

// PageCache keeps rendered pages per path. Every path may have several
// variants (query strings). Entries live in process memory first and, when a
// memcached client is configured, in memcached shared by every instance.
//
// Both layers key entries by a per-path generation. Purging a path bumps its
// generation, so a page rendered from data read before the purge is stored
// under a generation nobody asks for anymore.
type PageCache struct {
	local *gocache.Cache
	mc    *memcache.Client
	ttl   time.Duration

	mu   sync.Mutex
	gens map[string]uint64
}

// Version is the generation of a path observed by Get. Pass it back to Set
// together with the page rendered after that Get.
type Version struct {
	local    uint64
	shared   uint64
	sharedOK bool
}

// NewPageCache builds a page cache. broadcast tells whether purges reach
// every instance (redis is configured). Without it a shared memcached layer
// is the only one kept, since other instances could not drop their local
// copies.
func NewPageCache(mc *memcache.Client, ttl time.Duration, broadcast bool) *PageCache {
	p := &PageCache{
		mc:   mc,
		ttl:  ttl,
		gens: map[string]uint64{},
	}
	if mc == nil || broadcast {
		p.local = gocache.New(ttl, 2*ttl)
	}
	return p
}

func localKey(path string, gen uint64, variant string) string {
	return path + "|" + strconv.FormatUint(gen, 10) + "|" + variant
}

func generationKey(path string) string {
	return fmt.Sprintf("dashboard:gen:%016x", xxh3.HashString(path))
}

func sharedKey(path string, gen uint64, variant string) string {
	return fmt.Sprintf("dashboard:page:%016x:%d:%016x", xxh3.HashString(path), gen, xxh3.HashString(variant))
}

func (p *PageCache) localGeneration(path string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gens[path]
}

func (p *PageCache) sharedGeneration(path string) (uint64, error) {
	item, err := p.mc.Get(generationKey(path))
	if err == memcache.ErrCacheMiss {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(item.Value)), 10, 64)
}

// Get returns the cached page for path and variant, and the version to hand
// to Set on a miss.
func (p *PageCache) Get(path, variant string) ([]byte, Version, bool) {
	version := Version{local: p.localGeneration(path)}

	if p.local != nil {
		if value, found := p.local.Get(localKey(path, version.local, variant)); found {
			return value.([]byte), version, true
		}
	}
	if p.mc == nil {
		return nil, version, false
	}

	gen, err := p.sharedGeneration(path)
	if err != nil {
		return nil, version, false
	}
	version.shared, version.sharedOK = gen, true

	item, err := p.mc.Get(sharedKey(path, gen, variant))
	if err != nil {
		return nil, version, false
	}

	if p.local != nil {
		p.local.SetDefault(localKey(path, version.local, variant), item.Value)
	}
	return item.Value, version, true
}

// Set stores a page rendered after the Get that returned version. Failing to
// reach memcached is not fatal; the page stays cached locally.
func (p *PageCache) Set(path, variant string, version Version, body []byte) error {
	if p.local != nil {
		p.local.SetDefault(localKey(path, version.local, variant), body)
	}
	if p.mc == nil || !version.sharedOK {
		return nil
	}

	return p.mc.Set(&memcache.Item{
		Key:        sharedKey(path, version.shared, variant),
		Value:      body,
		Expiration: int32(p.ttl.Seconds()),
	})
}

// PurgeLocal drops every variant of path from process memory.
func (p *PageCache) PurgeLocal(path string) {
	p.mu.Lock()
	p.gens[path]++
	p.mu.Unlock()

	if p.local == nil {
		return
	}
	prefix := path + "|"
	for key := range p.local.Items() {
		if strings.HasPrefix(key, prefix) {
			p.local.Delete(key)
		}
	}
}

// Purge drops every variant of path locally and in memcached.
func (p *PageCache) Purge(path string) error {
	p.PurgeLocal(path)
	if p.mc == nil {
		return nil
	}

	key := generationKey(path)
	_, err := p.mc.Increment(key, 1)
	if err != memcache.ErrCacheMiss {
		return err
	}

	err = p.mc.Add(&memcache.Item{Key: key, Value: []byte("1")})
	if err == memcache.ErrNotStored {
		// created concurrently by another instance
		_, err = p.mc.Increment(key, 1)
	}
	return err
}
