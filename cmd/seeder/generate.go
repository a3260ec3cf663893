package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

var errNoPrompts = errors.New("no prompts to seed from")

// generator writes a dated tree of rollout logs in the Codex layout.
type generator struct {
	root     string
	sessions int
	turns    int
	prompts  []string
	replies  []string
	cwds     []string
	seed     uint64
	workers  int
	now      func() time.Time
}

type sessionPlan struct {
	path    string
	uuid    string
	started time.Time
	cwd     string
	turns   [][2]string
}

// Generate writes g.sessions files, one per minute going back from now, and
// returns how many were written.
func (g *generator) Generate(ctx context.Context) (int, error) {
	if len(g.prompts) == 0 {
		return 0, errNoPrompts
	}
	if g.sessions < 0 || g.turns < 1 {
		return 0, fmt.Errorf("sessions must be non-negative and turns positive")
	}

	plans := g.plan()

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(max(g.workers, 1))
	for _, p := range plans {
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeSession(p)
		})
	}
	if err := grp.Wait(); err != nil {
		return 0, err
	}
	return len(plans), nil
}

// plan draws every session up front so output depends only on the seed.
func (g *generator) plan() []sessionPlan {
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	rng := rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15))
	base := now().Truncate(time.Second)

	plans := make([]sessionPlan, g.sessions)
	for i := range plans {
		started := base.Add(-time.Duration(i+1) * time.Minute)
		uuid := newUUID(rng)
		p := sessionPlan{
			path: filepath.Join(g.root, started.Format("2006"), started.Format("01"), started.Format("02"),
				fmt.Sprintf("rollout-%s-%s.jsonl", started.Format("2006-01-02T15-04-05"), uuid)),
			uuid:    uuid,
			started: started,
		}
		if len(g.cwds) > 0 {
			p.cwd = g.cwds[rng.IntN(len(g.cwds))]
		}
		for range g.turns {
			prompt := g.prompts[rng.IntN(len(g.prompts))]
			reply := ""
			if len(g.replies) > 0 {
				reply = g.replies[rng.IntN(len(g.replies))]
			}
			p.turns = append(p.turns, [2]string{prompt, reply})
		}
		plans[i] = p
	}
	return plans
}

func newUUID(rng *rand.Rand) string {
	var b [16]byte
	for i := range b {
		b[i] = byte(rng.UintN(256))
	}
	b[6] = b[6]&0x0f | 0x40
	b[8] = b[8]&0x3f | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

type record struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagePayload struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

func writeSession(p sessionPlan) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}

	var b strings.Builder
	enc := json.NewEncoder(&b)
	at := p.started
	stamp := func() string {
		at = at.Add(5 * time.Second)
		return at.UTC().Format(time.RFC3339)
	}

	meta := map[string]string{"id": p.uuid}
	if p.cwd != "" {
		meta["cwd"] = p.cwd
	}
	if err := enc.Encode(record{Timestamp: stamp(), Type: "session_meta", Payload: meta}); err != nil {
		return err
	}
	for _, turn := range p.turns {
		user := messagePayload{Type: "message", Role: "user", Content: []contentPart{{Type: "input_text", Text: turn[0]}}}
		if err := enc.Encode(record{Timestamp: stamp(), Type: "response_item", Payload: user}); err != nil {
			return err
		}
		if turn[1] == "" {
			continue
		}
		reply := messagePayload{Type: "message", Role: "assistant", Content: []contentPart{{Type: "output_text", Text: turn[1]}}}
		if err := enc.Encode(record{Timestamp: stamp(), Type: "response_item", Payload: reply}); err != nil {
			return err
		}
	}

	if err := os.WriteFile(p.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", p.path, err)
	}
	return os.Chtimes(p.path, at, at)
}
