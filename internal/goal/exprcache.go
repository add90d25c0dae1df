package goal

import (
	"fmt"
	"sync/atomic"

	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultExprCacheSize is the default maximum number of compiled expressions
// shared between expression predicates.
const DefaultExprCacheSize = 1000

var exprCache = newExprProgramCache(DefaultExprCacheSize)

// SetExprCacheSize changes the maximum size of the shared expression cache,
// evicting the least recently used programs if it shrinks.
func SetExprCacheSize(size int) {
	if size < 1 {
		size = 1
	}
	exprCache.cache.Resize(size)
}

// ExprCacheStats reports the shared expression cache's size and hit counts.
func ExprCacheStats() (size int, hits, misses int64) {
	return exprCache.cache.Len(), exprCache.hits.Load(), exprCache.misses.Load()
}

type exprProgramCache struct {
	cache  *lru.Cache[string, *vm.Program]
	hits   atomic.Int64
	misses atomic.Int64
}

func newExprProgramCache(size int) *exprProgramCache {
	cache, err := lru.New[string, *vm.Program](size)
	if err != nil {
		panic(fmt.Sprintf("goal: invalid expression cache size %d: %v", size, err))
	}
	return &exprProgramCache{cache: cache}
}

func (c *exprProgramCache) Get(expression string) (*vm.Program, bool) {
	program, ok := c.cache.Get(expression)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return program, ok
}

func (c *exprProgramCache) Add(expression string, program *vm.Program) {
	c.cache.Add(expression, program)
}
