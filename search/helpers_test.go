package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zippoxer/codex-search/core"
)

var refNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func userMsg(text string, at time.Time) core.Message {
	return core.NewMessage(core.RoleUser, text, at, 240)
}

func assistantMsg(text string, at time.Time) core.Message {
	return core.NewMessage(core.RoleAssistant, text, at, 240)
}

func newSession(t *testing.T, uuid, label string, updated time.Time, msgs ...core.Message) *core.Session {
	t.Helper()
	s, err := core.NewSession(core.SessionInfo{UUID: uuid, Label: label, UpdatedAt: updated}, msgs)
	require.NoError(t, err)
	return s
}

func uuids(results []*core.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Session.UUID
	}
	return out
}
