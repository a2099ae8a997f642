package coursechat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/learny-backend/internal/learning/prompts"
	"github.com/yungbote/learny-backend/internal/observability"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
	"github.com/yungbote/learny-backend/internal/platform/promptstyle"
	"github.com/yungbote/learny-backend/internal/platform/tokens"
)

// Generator is the external text-generation backend. It returns either the
// JSON payload itself or a chat-completions envelope that carries it.
type Generator interface {
	Generate(ctx context.Context, system string, user string) ([]byte, error)
}

type GeneratorFunc func(ctx context.Context, system string, user string) ([]byte, error)

func (f GeneratorFunc) Generate(ctx context.Context, system string, user string) ([]byte, error) {
	return f(ctx, system, user)
}

var (
	ErrMalformedPayload = errors.New("malformed generator payload")
	ErrSchemaMismatch   = errors.New("generator payload does not match schema")
)

// Batch is the outcome of one gateway request. Err is set when the generator
// or decoding failed; Suggestions is empty in that case. A nil Err with no
// suggestions means the generator legitimately returned nothing.
type Batch struct {
	Suggestions []LessonSuggestion
	Err         error
}

func (b Batch) Failed() bool { return b.Err != nil }

func (b Batch) outcome() string {
	switch {
	case b.Err != nil:
		return "failure"
	case len(b.Suggestions) == 0:
		return "empty"
	default:
		return "ok"
	}
}

type Clarification struct {
	Question string
	Options  []string
	Fallback bool
}

type GatewayConfig struct {
	// Token budget for the existing-titles context; <= 0 disables trimming.
	ContextTokenBudget int
}

// Gateway turns prompts into lesson suggestions. It never returns an error to
// its callers: every failure becomes an empty Batch with Err set.
type Gateway struct {
	gen     Generator
	log     *logger.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
	cfg     GatewayConfig

	schemasMu sync.Mutex
	schemas   map[string]*gojsonschema.Schema
}

func NewGateway(gen Generator, baseLog *logger.Logger, metrics *observability.Metrics, cfg GatewayConfig) *Gateway {
	return &Gateway{
		gen:     gen,
		log:     baseLog.With("component", "SuggestionGateway"),
		metrics: metrics,
		tracer:  otel.Tracer("learny/coursechat"),
		cfg:     cfg,
		schemas: map[string]*gojsonschema.Schema{},
	}
}

func (g *Gateway) InitialIdeas(ctx context.Context, topic string, count int, existing []string) Batch {
	return g.build(ctx, prompts.PromptInitialLessonIdeas, prompts.Input{
		Topic:          topic,
		Count:          count,
		ExistingTitles: g.contextTitles(existing),
	})
}

func (g *Gateway) FollowUpIdeas(ctx context.Context, topic, query string, existing []string) Batch {
	return g.build(ctx, prompts.PromptFollowUpLessonIdeas, prompts.Input{
		Topic:          topic,
		Query:          query,
		ExistingTitles: g.contextTitles(existing),
	})
}

func (g *Gateway) FulfillPlan(ctx context.Context, topic string, existing []string, count int) Batch {
	return g.build(ctx, prompts.PromptFulfillLessonPlan, prompts.Input{
		Topic:          topic,
		Count:          count,
		ExistingTitles: g.contextTitles(existing),
	})
}

func (g *Gateway) build(ctx context.Context, name prompts.PromptName, in prompts.Input) Batch {
	p, err := prompts.Build(name, in)
	if err != nil {
		g.log.Warn("prompt build failed", "prompt", string(name), "error", err)
		g.metrics.ObserveGateway(string(name), "failure", 0, 0)
		return Batch{Err: err}
	}
	return g.Request(ctx, p)
}

// Request sends p to the generator and decodes a {"lessons": [...]} payload.
// Every returned suggestion gets a fresh id and IsSelected=false.
func (g *Gateway) Request(ctx context.Context, p prompts.Prompt) Batch {
	ctx, span := g.tracer.Start(ctx, "coursechat.gateway.request",
		trace.WithAttributes(attribute.String("prompt.name", p.Name)))
	defer span.End()

	start := time.Now()
	batch := g.request(ctx, p)

	span.SetAttributes(
		attribute.Int("suggestions.count", len(batch.Suggestions)),
		attribute.Bool("gateway.failed", batch.Failed()),
	)
	if batch.Err != nil {
		span.RecordError(batch.Err)
		span.SetStatus(codes.Error, "gateway failure")
		g.log.Warn("suggestion request failed", "prompt", p.Name, "error", batch.Err)
	}
	g.metrics.ObserveGateway(p.Name, batch.outcome(), time.Since(start), len(batch.Suggestions))
	return batch
}

func (g *Gateway) request(ctx context.Context, p prompts.Prompt) Batch {
	payload, err := g.generate(ctx, p)
	if err != nil {
		return Batch{Err: err}
	}
	if bytes.HasPrefix(payload, []byte("[")) {
		payload = append(append([]byte(`{"lessons":`), payload...), '}')
	}
	if err := g.validate(p, payload); err != nil {
		return Batch{Err: err}
	}

	var decoded struct {
		Lessons []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"lessons"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Batch{Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}
	out := make([]LessonSuggestion, 0, len(decoded.Lessons))
	for _, l := range decoded.Lessons {
		out = append(out, LessonSuggestion{
			ID:          uuid.New(),
			Title:       strings.TrimSpace(l.Title),
			Description: strings.TrimSpace(l.Description),
		})
	}
	return Batch{Suggestions: out}
}

// ClarifyingQuestion asks the generator for a follow-up question about text.
// Any failure falls back to a generic question with fixed options.
func (g *Gateway) ClarifyingQuestion(ctx context.Context, topic, text string) Clarification {
	fallback := Clarification{
		Question: fallbackClarificationQuestion(text),
		Options:  append([]string(nil), fallbackClarificationOptions...),
		Fallback: true,
	}

	ctx, span := g.tracer.Start(ctx, "coursechat.gateway.clarify")
	defer span.End()
	start := time.Now()

	p, err := prompts.Build(prompts.PromptClarifyingQuestion, prompts.Input{Topic: topic, Query: text})
	if err == nil {
		var out struct {
			Question string   `json:"question"`
			Options  []string `json:"options"`
		}
		if err = g.decodeInto(ctx, p, &out); err == nil {
			q := strings.TrimSpace(out.Question)
			opts := make([]string, 0, len(out.Options))
			for _, o := range out.Options {
				if o = strings.TrimSpace(o); o != "" {
					opts = append(opts, o)
				}
			}
			if q != "" && len(opts) >= 2 && len(opts) <= 3 {
				g.metrics.ObserveGateway(p.Name, "ok", time.Since(start), 0)
				return Clarification{Question: q, Options: opts}
			}
			err = fmt.Errorf("%w: unusable clarification", ErrMalformedPayload)
		}
	}
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("gateway.fallback", true))
	g.log.Warn("clarifying question fell back", "error", err)
	g.metrics.ObserveGateway(string(prompts.PromptClarifyingQuestion), "failure", time.Since(start), 0)
	return fallback
}

// decodeInto runs p and decodes the validated payload into out.
func (g *Gateway) decodeInto(ctx context.Context, p prompts.Prompt, out any) error {
	payload, err := g.generate(ctx, p)
	if err != nil {
		return err
	}
	if err := g.validate(p, payload); err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func (g *Gateway) generate(ctx context.Context, p prompts.Prompt) ([]byte, error) {
	if g.gen == nil {
		return nil, errors.New("no generator configured")
	}
	raw, err := g.gen.Generate(ctx, promptstyle.ApplySystem(p.System, "json"), p.User)
	if err != nil {
		return nil, err
	}
	return extractPayload(raw)
}

func (g *Gateway) validate(p prompts.Prompt, payload []byte) error {
	if p.Schema == nil {
		return nil
	}
	schema, err := g.compiled(p)
	if err != nil {
		return err
	}
	res, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(msgs, "; "))
	}
	return nil
}

func (g *Gateway) compiled(p prompts.Prompt) (*gojsonschema.Schema, error) {
	key := p.SchemaName + "@" + p.Name
	g.schemasMu.Lock()
	defer g.schemasMu.Unlock()
	if s, ok := g.schemas[key]; ok {
		return s, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(p.Schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", p.SchemaName, err)
	}
	g.schemas[key] = s
	return s, nil
}

func (g *Gateway) contextTitles(existing []string) string {
	return tokens.JoinWithinBudget(existing, ", ", g.cfg.ContextTokenBudget)
}

// extractPayload unwraps a chat-completions envelope when present and strips
// markdown code fences. The result is the JSON text the prompt asked for.
func extractPayload(raw []byte) ([]byte, error) {
	body := stripFences(raw)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedPayload)
	}
	if body[0] == '{' {
		var env struct {
			Choices *[]struct {
				Message struct {
					Content *string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		if env.Choices != nil {
			choices := *env.Choices
			if len(choices) == 0 || choices[0].Message.Content == nil {
				return nil, fmt.Errorf("%w: envelope without content", ErrMalformedPayload)
			}
			body = stripFences([]byte(*choices[0].Message.Content))
			if len(body) == 0 {
				return nil, fmt.Errorf("%w: empty content", ErrMalformedPayload)
			}
		}
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedPayload)
	}
	return body, nil
}

func stripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return []byte(strings.TrimSpace(s))
}
