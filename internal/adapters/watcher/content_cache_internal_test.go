package watcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/sitepipe/internal/core/ports"
)

type fakeHasher map[string]uint64

func (f fakeHasher) ComputeFileHash(path string) (uint64, error) {
	sum, ok := f[path]
	if !ok {
		return 0, errors.New("is a directory")
	}
	return sum, nil
}

func TestContentCache_DropsIdenticalWrites(t *testing.T) {
	h := fakeHasher{"/site/src/sass/main.scss": 1}
	c := newContentCache(h)
	write := ports.WatchEvent{Path: "/site/src/sass/main.scss", Operation: ports.OpWrite}

	assert.True(t, c.changed(write), "first write is delivered")
	assert.False(t, c.changed(write), "same content is dropped")

	h["/site/src/sass/main.scss"] = 2
	assert.True(t, c.changed(write), "new content is delivered")

	assert.True(t, c.changed(ports.WatchEvent{Path: write.Path, Operation: ports.OpRemove}))
	assert.True(t, c.changed(write), "removal forgets the digest")
}

func TestContentCache_UnhashablePathsPass(t *testing.T) {
	c := newContentCache(fakeHasher{})
	ev := ports.WatchEvent{Path: "/site/src/icons/social", Operation: ports.OpWrite}
	assert.True(t, c.changed(ev))
	assert.True(t, c.changed(ev))
}

func TestContentCache_NilHasher(t *testing.T) {
	c := newContentCache(nil)
	ev := ports.WatchEvent{Path: "a", Operation: ports.OpWrite}
	assert.True(t, c.changed(ev))
	assert.True(t, c.changed(ev))
}
