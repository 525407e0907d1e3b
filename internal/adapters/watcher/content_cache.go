package watcher

import (
	"sync"
	"unique"

	"go.trai.ch/sitepipe/internal/core/ports"
)

// FileHasher digests a file's content.
type FileHasher interface {
	ComputeFileHash(path string) (uint64, error)
}

// contentCache remembers the last seen digest per path so that writes which
// rewrite identical bytes do not trigger reruns.
type contentCache struct {
	hasher FileHasher

	mu     sync.Mutex
	hashes map[unique.Handle[string]]uint64
}

func newContentCache(hasher FileHasher) *contentCache {
	return &contentCache{
		hasher: hasher,
		hashes: make(map[unique.Handle[string]]uint64),
	}
}

// changed reports whether ev should be delivered. Only write events are
// filtered; removals forget the path.
func (c *contentCache) changed(ev ports.WatchEvent) bool {
	if c.hasher == nil {
		return true
	}

	key := unique.Make(ev.Path)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Operation {
	case ports.OpRemove, ports.OpRename:
		delete(c.hashes, key)
		return true
	case ports.OpWrite, ports.OpCreate:
		sum, err := c.hasher.ComputeFileHash(ev.Path)
		if err != nil {
			// Directories and vanished files are not filtered.
			delete(c.hashes, key)
			return true
		}
		prev, seen := c.hashes[key]
		c.hashes[key] = sum
		return ev.Operation == ports.OpCreate || !seen || prev != sum
	default:
		return true
	}
}
