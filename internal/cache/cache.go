// Package cache memoizes file content for the lifetime of one scan batch.
package cache

import (
	"os"
)

// ReadFunc reads a whole file. os.ReadFile is the default.
type ReadFunc func(path string) ([]byte, error)

type entry struct {
	content string
	err     error
}

// Cache maps a path to its content or to the error its read produced.
// A path is read from disk at most once; failures are terminal for the
// cache's lifetime. A Cache is not safe for concurrent use: each batch owns
// its own instance.
type Cache struct {
	read    ReadFunc
	entries map[string]entry
	reads   int
}

// New creates an empty Cache. A nil read uses os.ReadFile.
func New(read ReadFunc) *Cache {
	if read == nil {
		read = os.ReadFile
	}
	return &Cache{
		read:    read,
		entries: make(map[string]entry),
	}
}

// Get returns the content of path, reading it on first request.
func (c *Cache) Get(path string) (string, error) {
	if e, ok := c.entries[path]; ok {
		return e.content, e.err
	}
	c.reads++
	data, err := c.read(path)
	e := entry{err: err}
	if err == nil {
		e.content = string(data)
	}
	c.entries[path] = e
	return e.content, e.err
}

// Has reports whether path has been cached, successfully or not.
func (c *Cache) Has(path string) bool {
	_, ok := c.entries[path]
	return ok
}

// Reads returns how many times the underlying read function was called.
func (c *Cache) Reads() int { return c.reads }

// Len returns the number of cached paths.
func (c *Cache) Len() int { return len(c.entries) }
