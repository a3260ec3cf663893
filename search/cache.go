package search

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zippoxer/codex-search/core"
)

// DefaultMatchCacheSize is the number of (session, query) entries kept.
const DefaultMatchCacheSize = 4096

type matchKey struct {
	session      core.ID
	updatedAt    int64
	query        string
	contextChars int
}

// MatchCache memoizes the query-dependent part of a session's score: the
// fuzzy and containment signals, the best message and the snippet. The
// recency term depends on the clock and is always recomputed.
type MatchCache struct {
	entries *lru.Cache[matchKey, textMatch]
}

// NewMatchCache creates a cache holding at most size entries.
func NewMatchCache(size int) (*MatchCache, error) {
	entries, err := lru.New[matchKey, textMatch](size)
	if err != nil {
		return nil, err
	}
	return &MatchCache{entries: entries}, nil
}

// Len returns the number of cached entries.
func (c *MatchCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *MatchCache) Purge() {
	c.entries.Purge()
}

func (c *MatchCache) get(s *core.Session, query string, contextChars int) (textMatch, bool) {
	return c.entries.Get(cacheKey(s, query, contextChars))
}

func (c *MatchCache) add(s *core.Session, query string, contextChars int, m textMatch) {
	c.entries.Add(cacheKey(s, query, contextChars), m)
}

func cacheKey(s *core.Session, query string, contextChars int) matchKey {
	return matchKey{
		session:      s.ID(),
		updatedAt:    s.UpdatedAt.UnixNano(),
		query:        query,
		contextChars: contextChars,
	}
}
