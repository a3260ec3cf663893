package search

import "github.com/zippoxer/codex-search/core"

// RankMonitor observes a ranking pass. Implementations must be cheap; they
// are called once per candidate.
type RankMonitor interface {
	Start(query string, candidates int)
	Rejected(session *core.Session)
	Matched(result *core.SearchResult)
	Finish(results []*core.SearchResult)
}

type noopMonitor struct{}

var _ RankMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)         {}
func (n *noopMonitor) Rejected(_ *core.Session)      {}
func (n *noopMonitor) Matched(_ *core.SearchResult)  {}
func (n *noopMonitor) Finish(_ []*core.SearchResult) {}
