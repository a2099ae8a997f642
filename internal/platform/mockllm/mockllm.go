// Package mockllm is an offline generator that answers every course prompt
// with canned JSON. It backs the "mock" provider for local runs and demos.
package mockllm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yungbote/learny-backend/internal/observability"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

const providerName = "mock"

var countPattern = regexp.MustCompile(`(?i)generate (?:exactly )?(\d+)`)

type Client struct {
	log *logger.Logger
	seq atomic.Int64
	// Delay simulates generator latency.
	Delay time.Duration
}

func New(log *logger.Logger) *Client {
	return &Client{log: log.With("client", "MockGenerator")}
}

func (c *Client) Generate(ctx context.Context, system string, user string) ([]byte, error) {
	start := time.Now()
	if c.Delay > 0 {
		t := time.NewTimer(c.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	var payload any
	switch {
	case strings.Contains(user, "clarifying question"):
		payload = map[string]any{
			"question": "Which part should the new lessons focus on?",
			"options":  []string{"The fundamentals", "Hands-on practice", "Advanced topics"},
		}
	case strings.Contains(user, "Create a detailed lesson"):
		payload = lessonContent()
	case strings.Contains(user, "just asked to add lessons"):
		payload = c.lessons(2)
	default:
		n := 3
		if m := countPattern.FindStringSubmatch(user); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
				n = v
			}
		}
		payload = c.lessons(n)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	observability.Current().ObserveLLMRequest(providerName, providerName, "200", time.Since(start), 0, 0)
	c.log.Debug("Mock generation", "bytes", len(raw))
	return raw, nil
}

func (c *Client) lessons(n int) map[string]any {
	items := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		k := c.seq.Add(1)
		items = append(items, map[string]string{
			"title":       fmt.Sprintf("Sample lesson %d", k),
			"description": fmt.Sprintf("Placeholder description for sample lesson %d.", k),
		})
	}
	return map[string]any{"lessons": items}
}

func lessonContent() map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			{"type": "text", "text": "This lesson introduces the core idea with a short explanation."},
			{"type": "dialogue", "lines": []map[string]string{
				{"speaker": "Student", "text": "Why does this matter?"},
				{"speaker": "Teacher", "text": "Because everything later builds on it."},
			}},
			{"type": "matching", "pairs": []map[string]string{
				{"term": "Concept", "definition": "The idea being taught"},
				{"term": "Example", "definition": "A concrete case of the idea"},
			}},
		},
		"quiz": []map[string]any{
			{"prompt": "What does this lesson introduce?", "options": []string{"The core idea", "Nothing"}, "correct_index": 0},
			{"prompt": "What do later lessons build on?", "options": []string{"Unrelated topics", "This lesson"}, "correct_index": 1},
		},
	}
}
