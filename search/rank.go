package search

import (
	"cmp"
	"slices"
	"time"

	"github.com/zippoxer/codex-search/core"
)

type ranked struct {
	result *core.SearchResult
	at     time.Time
}

// Rank scores sessions against query at the fixed time now and returns at
// most limit results, newest match first. Sessions are not reordered before
// scoring, so ties keep their input order.
func Rank(sessions []*core.Session, query string, limit int, now time.Time, opts ...ScorerOption) []*core.SearchResult {
	scorer := NewScorer(query, append([]ScorerOption{WithNow(now)}, opts...)...)
	return rankWith(scorer, sessions, limit, &noopMonitor{})
}

func rankWith(scorer *Scorer, sessions []*core.Session, limit int, monitor RankMonitor) []*core.SearchResult {
	monitor.Start(scorer.Query(), len(sessions))

	hits := make([]ranked, 0, len(sessions))
	for _, session := range sessions {
		result, ok := scorer.Score(session)
		if !ok {
			monitor.Rejected(session)
			continue
		}
		monitor.Matched(result)
		hits = append(hits, ranked{result: result, at: result.MatchTimestamp()})
	}

	slices.SortStableFunc(hits, func(a, b ranked) int {
		if c := b.at.Compare(a.at); c != 0 {
			return c
		}
		return cmp.Compare(b.result.Score, a.result.Score)
	})

	if limit >= 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	results := make([]*core.SearchResult, len(hits))
	for i, h := range hits {
		results[i] = h.result
	}

	monitor.Finish(results)
	return results
}
