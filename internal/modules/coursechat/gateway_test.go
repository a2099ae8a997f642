package coursechat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/learny-backend/internal/domain/learning"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

func newTestGateway(body string, err error) *Gateway {
	gen := GeneratorFunc(func(ctx context.Context, system, user string) ([]byte, error) {
		if err != nil {
			return nil, err
		}
		return []byte(body), nil
	})
	return NewGateway(gen, logger.Nop(), nil, GatewayConfig{})
}

func TestGatewayDecodesSuggestions(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		titles []string
	}{
		{
			name:   "bare object",
			body:   `{"lessons":[{"title":" Goroutines ","description":"Lightweight threads"},{"title":"Channels","description":"Typed pipes"}]}`,
			titles: []string{"Goroutines", "Channels"},
		},
		{
			name:   "chat envelope",
			body:   `{"id":"x","choices":[{"message":{"role":"assistant","content":"{\"lessons\":[{\"title\":\"Select\",\"description\":\"d\"}]}"}}]}`,
			titles: []string{"Select"},
		},
		{
			name:   "fenced",
			body:   "```json\n{\"lessons\":[{\"title\":\"Mutexes\"}]}\n```",
			titles: []string{"Mutexes"},
		},
		{
			name:   "bare array",
			body:   `[{"title":"Context","description":"Cancellation"}]`,
			titles: []string{"Context"},
		},
		{
			name:   "empty list",
			body:   `{"lessons":[]}`,
			titles: []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch := newTestGateway(tc.body, nil).InitialIdeas(context.Background(), "Go", 2, nil)
			require.NoError(t, batch.Err)
			got := make([]string, 0, len(batch.Suggestions))
			seen := map[string]bool{}
			for _, s := range batch.Suggestions {
				got = append(got, s.Title)
				assert.False(t, s.IsSelected)
				assert.False(t, seen[s.ID.String()])
				seen[s.ID.String()] = true
			}
			assert.Equal(t, tc.titles, got)
		})
	}
}

func TestGatewayFailuresYieldEmptyBatch(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		want error
	}{
		{name: "transport", err: errors.New("connection refused")},
		{name: "not json", body: "Sure! Here are some lessons", want: ErrMalformedPayload},
		{name: "empty", body: "   ", want: ErrMalformedPayload},
		{name: "envelope without choices", body: `{"choices":[]}`, want: ErrMalformedPayload},
		{name: "missing lessons key", body: `{"ideas":[]}`, want: ErrSchemaMismatch},
		{name: "missing title", body: `{"lessons":[{"description":"x"}]}`, want: ErrSchemaMismatch},
		{name: "wrong type", body: `{"lessons":"none"}`, want: ErrSchemaMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch := newTestGateway(tc.body, tc.err).FollowUpIdeas(context.Background(), "Go", "testing", []string{"Intro"})
			require.True(t, batch.Failed())
			assert.Empty(t, batch.Suggestions)
			if tc.want != nil {
				assert.ErrorIs(t, batch.Err, tc.want)
			}
		})
	}
}

func TestGatewayRejectsInvalidPromptInput(t *testing.T) {
	called := false
	gen := GeneratorFunc(func(context.Context, string, string) ([]byte, error) {
		called = true
		return nil, nil
	})
	batch := NewGateway(gen, logger.Nop(), nil, GatewayConfig{}).FulfillPlan(context.Background(), "Go", nil, 0)
	assert.True(t, batch.Failed())
	assert.False(t, called)
}

func TestGatewayTrimsContextTitles(t *testing.T) {
	var user string
	gen := GeneratorFunc(func(_ context.Context, _ string, u string) ([]byte, error) {
		user = u
		return []byte(`{"lessons":[]}`), nil
	})
	gw := NewGateway(gen, logger.Nop(), nil, GatewayConfig{ContextTokenBudget: 3})
	titles := []string{"first lesson title that is long", "second lesson title that is long", "latest"}
	gw.FulfillPlan(context.Background(), "Go", titles, 1)

	assert.Contains(t, user, "latest")
	assert.NotContains(t, user, "first lesson title")
}

func TestClarifyingQuestion(t *testing.T) {
	c := newTestGateway(`{"question":"  Which part? ","options":["A"," B ","C"]}`, nil).
		ClarifyingQuestion(context.Background(), "Go", "generics")
	assert.False(t, c.Fallback)
	assert.Equal(t, "Which part?", c.Question)
	assert.Equal(t, []string{"A", "B", "C"}, c.Options)

	for _, body := range []string{
		`{"question":"Q","options":["A","B","C","D"]}`,
		`{"question":"","options":["A","B"]}`,
		`{"question":"Q","options":["A","  "]}`,
		`oops`,
	} {
		c := newTestGateway(body, nil).ClarifyingQuestion(context.Background(), "Go", "generics")
		assert.True(t, c.Fallback, body)
		assert.Equal(t, fallbackClarificationQuestion("generics"), c.Question)
		assert.Equal(t, fallbackClarificationOptions, c.Options)
	}
}

func TestLessonContent(t *testing.T) {
	body := `{
		"blocks": [
			{"type":"text","text":"Goroutines are cheap."},
			{"type":"dialogue","lines":[{"speaker":"Ana","text":"Why?"},{"speaker":"Bo","text":"Small stacks."}]},
			{"type":"matching","pairs":[{"term":"go","definition":"starts a goroutine"}]},
			{"type":"text","text":"   "},
			{"type":"text","text":"Let me know if you want more examples."}
		],
		"quiz": [
			{"prompt":"What starts a goroutine?","options":["go","run"],"correct_index":0},
			{"prompt":"Broken","options":["a"],"correct_index":3}
		]
	}`
	got, err := newTestGateway(body, nil).LessonContent(context.Background(), "Go", "Goroutines")
	require.NoError(t, err)
	require.Len(t, got.Blocks, 3)
	assert.Equal(t, types.BlockText, got.Blocks[0].Type)
	assert.Equal(t, types.BlockDialogue, got.Blocks[1].Type)
	assert.Len(t, got.Blocks[1].Lines, 2)
	assert.Equal(t, types.BlockMatching, got.Blocks[2].Type)
	require.Len(t, got.Quiz, 1)
	assert.Equal(t, 0, got.Quiz[0].Position)
	assert.Equal(t, 0, got.Quiz[0].CorrectIndex)

	_, err = newTestGateway(`{"blocks":[]}`, nil).LessonContent(context.Background(), "Go", "Empty")
	assert.ErrorIs(t, err, ErrMalformedPayload)
}
