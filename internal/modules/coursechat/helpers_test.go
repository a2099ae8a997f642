package coursechat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

type promptKind string

const (
	kindInitial promptKind = "initial"
	kindFollow  promptKind = "follow_up"
	kindFulfill promptKind = "fulfill"
	kindClarify promptKind = "clarify"
	kindContent promptKind = "content"
)

func classify(user string) promptKind {
	switch {
	case strings.Contains(user, "generate exactly"):
		return kindFulfill
	case strings.Contains(user, "just asked to add lessons"):
		return kindFollow
	case strings.Contains(user, "clarifying question"):
		return kindClarify
	case strings.Contains(user, "Create a detailed lesson"):
		return kindContent
	default:
		return kindInitial
	}
}

type call struct {
	kind promptKind
	user string
}

// scriptedGen answers each prompt kind with a fixed handler and records every
// call it receives.
type scriptedGen struct {
	mu       sync.Mutex
	calls    []call
	handlers map[promptKind]func(ctx context.Context, user string) (string, error)
}

func newScriptedGen() *scriptedGen {
	return &scriptedGen{handlers: map[promptKind]func(context.Context, string) (string, error){}}
}

func (g *scriptedGen) on(kind promptKind, fn func(ctx context.Context, user string) (string, error)) *scriptedGen {
	g.mu.Lock()
	g.handlers[kind] = fn
	g.mu.Unlock()
	return g
}

func (g *scriptedGen) reply(kind promptKind, body string) *scriptedGen {
	return g.on(kind, func(context.Context, string) (string, error) { return body, nil })
}

func (g *scriptedGen) fail(kind promptKind) *scriptedGen {
	return g.on(kind, func(context.Context, string) (string, error) { return "", fmt.Errorf("backend down") })
}

func (g *scriptedGen) Generate(ctx context.Context, system, user string) ([]byte, error) {
	kind := classify(user)
	g.mu.Lock()
	g.calls = append(g.calls, call{kind: kind, user: user})
	fn := g.handlers[kind]
	g.mu.Unlock()
	if fn == nil {
		return nil, fmt.Errorf("no script for %s", kind)
	}
	out, err := fn(ctx, user)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (g *scriptedGen) callsOf(kind promptKind) []call {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []call
	for _, c := range g.calls {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

func lessonsJSON(prefix string, n int) string {
	type lesson struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	ls := make([]lesson, n)
	for i := range ls {
		ls[i] = lesson{Title: fmt.Sprintf("%s %d", prefix, i+1), Description: fmt.Sprintf("About %s %d", prefix, i+1)}
	}
	b, _ := json.Marshal(map[string]any{"lessons": ls})
	return string(b)
}

func newTestConversation(t *testing.T, gen Generator) *Conversation {
	t.Helper()
	gw := NewGateway(gen, logger.Nop(), nil, GatewayConfig{})
	c := New(context.Background(), "Go", gw, Options{Log: logger.Nop()})
	t.Cleanup(c.Cancel)
	return c
}

func flush(t *testing.T, c *Conversation) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Flush(ctx))
}

func kinds(s Snapshot) []ContentKind {
	out := make([]ContentKind, len(s.Turns))
	for i, t := range s.Turns {
		out[i] = t.Kind()
	}
	return out
}

func lastText(t *testing.T, s Snapshot) string {
	t.Helper()
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if pt, ok := s.Turns[i].Content.(PlainText); ok {
			return pt.Text
		}
	}
	t.Fatalf("no plain text turn")
	return ""
}
