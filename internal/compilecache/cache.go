// Package compilecache memoizes compilations by source text. Editors send the
// whole document on every keystroke, and undo or retyping often reproduces a
// document that was already compiled.
package compilecache

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/specialistvlad/eonc/internal/eon"
	"github.com/specialistvlad/eonc/internal/metrics"
)

// DefaultSize is the number of distinct documents kept when no size is given.
const DefaultSize = 256

// Compiler turns source text into a result. eon.Compile satisfies it.
type Compiler func(source string) (*eon.Result, error)

type entry struct {
	result *eon.Result
	err    error
}

// Cache is a fixed-size LRU of compile outcomes keyed by the SHA-256 of the
// source. Failures are cached as well as successes. Cached results are shared
// between callers and must be treated as read-only.
type Cache struct {
	entries *lru.Cache[[sha256.Size]byte, entry]
	compile Compiler
	metrics *metrics.Registry
}

// Option configures a Cache.
type Option func(*Cache)

// WithCompiler replaces eon.Compile, mainly for tests.
func WithCompiler(fn Compiler) Option {
	return func(c *Cache) { c.compile = fn }
}

// WithMetrics records lookups and compilations on r.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Cache) { c.metrics = r }
}

// New creates a cache holding up to size documents.
func New(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[[sha256.Size]byte, entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create compile cache: %w", err)
	}
	c := &Cache{entries: entries, compile: eon.Compile}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Compile returns the cached outcome for source, compiling it on a miss.
func (c *Cache) Compile(source string) (*eon.Result, error) {
	key := sha256.Sum256([]byte(source))
	if e, ok := c.entries.Get(key); ok {
		c.recordLookup(true)
		return e.result, e.err
	}
	c.recordLookup(false)

	start := time.Now()
	res, err := c.compile(source)
	c.recordCompile(res, err, time.Since(start))

	c.entries.Add(key, entry{result: res, err: err})
	return res, err
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) recordLookup(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup(hit)
	}
}

func (c *Cache) recordCompile(res *eon.Result, err error, d time.Duration) {
	if c.metrics == nil {
		return
	}
	if err != nil {
		status := metrics.StatusSyntaxError
		if !errors.Is(err, eon.ErrSyntax) {
			status = "error"
		}
		c.metrics.RecordCompile(status, d)
		return
	}
	severities := make([]string, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		severities = append(severities, string(d.Severity))
	}
	c.metrics.RecordCompile(metrics.StatusOK, d, severities...)
}
