package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zippoxer/codex-search/core"
)

func endToEndSessions(t *testing.T) []*core.Session {
	return []*core.Session{
		newSession(t, "aaaa-1111", "alpha", refNow, userMsg("refactor auth module", refNow.Add(-3*time.Hour))),
		newSession(t, "bbbb-2222", "beta", refNow, userMsg("fix login bug", refNow.Add(-2*time.Hour))),
		newSession(t, "cccc-3333", "gamma", refNow, userMsg("update docs", refNow.Add(-1*time.Hour))),
	}
}

func TestRank_EndToEnd(t *testing.T) {
	sessions := endToEndSessions(t)

	t.Run("query selects the single matching session", func(t *testing.T) {
		results := Rank(sessions, "login", 20, refNow)
		require.Len(t, results, 1)
		assert.Equal(t, "bbbb-2222", results[0].Session.UUID)
		assert.Equal(t, "login", results[0].Snippet.Highlighted())
	})

	t.Run("empty query returns everything newest first", func(t *testing.T) {
		results := Rank(sessions, "", 20, refNow)
		assert.Equal(t, []string{"cccc-3333", "bbbb-2222", "aaaa-1111"}, uuids(results))
	})

	t.Run("unmatched query returns nothing", func(t *testing.T) {
		results := Rank(sessions, "zzz-nomatch", 20, refNow)
		assert.Empty(t, results)
	})
}

func TestRank_Ordering(t *testing.T) {
	t.Run("newer match wins over higher score", func(t *testing.T) {
		strong := newSession(t, "s-strong", "deploy", refNow,
			userMsg("deploy deploy deploy", refNow.Add(-10*time.Hour)))
		weak := newSession(t, "s-weak", "x", refNow,
			userMsg("d.e.p.l.o.y", refNow.Add(-1*time.Hour)))

		results := Rank([]*core.Session{strong, weak}, "deploy", 20, refNow)
		require.Len(t, results, 2)
		assert.Greater(t, results[1].Score, results[0].Score)
		assert.Equal(t, []string{"s-weak", "s-strong"}, uuids(results))
	})

	t.Run("score breaks timestamp ties", func(t *testing.T) {
		at := refNow.Add(-time.Hour)
		weak := newSession(t, "s-weak", "x", refNow, userMsg("d.e.p.l.o.y", at))
		strong := newSession(t, "s-strong", "deploy", refNow, userMsg("deploy", at))

		results := Rank([]*core.Session{weak, strong}, "deploy", 20, refNow)
		assert.Equal(t, []string{"s-strong", "s-weak"}, uuids(results))
	})

	t.Run("limit truncates", func(t *testing.T) {
		results := Rank(endToEndSessions(t), "", 2, refNow)
		assert.Equal(t, []string{"cccc-3333", "bbbb-2222"}, uuids(results))
	})

	t.Run("zero limit returns nothing", func(t *testing.T) {
		assert.Empty(t, Rank(endToEndSessions(t), "", 0, refNow))
	})
}

func TestRank_Deterministic(t *testing.T) {
	sessions := endToEndSessions(t)
	sessions = append(sessions,
		newSession(t, "dddd-4444", "delta", refNow.Add(-time.Minute), userMsg("update auth docs", time.Time{})),
		newSession(t, "eeee-5555", "epsilon", refNow.Add(-time.Minute), userMsg("update auth docs", time.Time{})),
	)

	for _, query := range []string{"", "auth", "update", "docs"} {
		first := Rank(sessions, query, 20, refNow)
		second := Rank(sessions, query, 20, refNow)
		require.Equal(t, uuids(first), uuids(second), query)
		for i := range first {
			assert.Equal(t, first[i].Score, second[i].Score)
			assert.Equal(t, first[i].Snippet, second[i].Snippet)
		}
	}
}

type countingMonitor struct {
	started  int
	matched  int
	rejected int
	finished int
}

func (c *countingMonitor) Start(_ string, _ int)         { c.started++ }
func (c *countingMonitor) Rejected(_ *core.Session)      { c.rejected++ }
func (c *countingMonitor) Matched(_ *core.SearchResult)  { c.matched++ }
func (c *countingMonitor) Finish(_ []*core.SearchResult) { c.finished++ }

func TestRankWith_Monitor(t *testing.T) {
	monitor := &countingMonitor{}
	rankWith(NewScorer("login", WithNow(refNow)), endToEndSessions(t), 20, monitor)

	assert.Equal(t, 1, monitor.started)
	assert.Equal(t, 1, monitor.matched)
	assert.Equal(t, 2, monitor.rejected)
	assert.Equal(t, 1, monitor.finished)
}
