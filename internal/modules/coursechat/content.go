package coursechat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	types "github.com/yungbote/learny-backend/internal/domain/learning"
	"github.com/yungbote/learny-backend/internal/learning/content"
	"github.com/yungbote/learny-backend/internal/learning/prompts"
)

// GeneratedLesson is the realized content of one lesson.
type GeneratedLesson struct {
	Blocks []types.ContentBlock
	Quiz   []*types.QuizQuestion
}

type rawLessonContent struct {
	Blocks []struct {
		Type  string `json:"type"`
		Text  string `json:"text"`
		Lines []struct {
			Speaker string `json:"speaker"`
			Text    string `json:"text"`
		} `json:"lines"`
		Pairs []struct {
			Term       string `json:"term"`
			Definition string `json:"definition"`
		} `json:"pairs"`
	} `json:"blocks"`
	Quiz []struct {
		Prompt       string   `json:"prompt"`
		Options      []string `json:"options"`
		CorrectIndex int      `json:"correct_index"`
	} `json:"quiz"`
}

// LessonContent asks the generator for the blocks and quiz of one lesson.
// Unlike suggestion requests, failures are returned so callers can keep the
// lesson's existing content.
func (g *Gateway) LessonContent(ctx context.Context, topic, lessonTitle string) (GeneratedLesson, error) {
	ctx, span := g.tracer.Start(ctx, "coursechat.gateway.lesson_content")
	defer span.End()
	start := time.Now()

	p, err := prompts.Build(prompts.PromptLessonContent, prompts.Input{Topic: topic, LessonTitle: lessonTitle})
	if err != nil {
		return GeneratedLesson{}, err
	}
	var raw rawLessonContent
	if err := g.decodeInto(ctx, p, &raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lesson content failure")
		g.metrics.ObserveGateway(p.Name, "failure", time.Since(start), 0)
		return GeneratedLesson{}, err
	}

	out := GeneratedLesson{}
	for _, b := range raw.Blocks {
		kind, ok := types.ParseBlockType(b.Type)
		if !ok {
			continue
		}
		switch kind {
		case types.BlockText:
			if t := strings.TrimSpace(b.Text); t != "" {
				out.Blocks = append(out.Blocks, types.NewTextBlock(t))
			}
		case types.BlockDialogue:
			lines := make([]types.DialogueLine, 0, len(b.Lines))
			for _, l := range b.Lines {
				lines = append(lines, types.DialogueLine{Speaker: l.Speaker, Text: l.Text})
			}
			if len(lines) > 0 {
				out.Blocks = append(out.Blocks, types.NewDialogueBlock(lines))
			}
		case types.BlockMatching:
			pairs := make([]types.MatchingPair, 0, len(b.Pairs))
			for _, pr := range b.Pairs {
				pairs = append(pairs, types.MatchingPair{Term: pr.Term, Definition: pr.Definition})
			}
			if len(pairs) > 0 {
				out.Blocks = append(out.Blocks, types.NewMatchingBlock(pairs))
			}
		}
	}
	for _, q := range raw.Quiz {
		if strings.TrimSpace(q.Prompt) == "" || q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			continue
		}
		out.Quiz = append(out.Quiz, &types.QuizQuestion{
			Position:     len(out.Quiz),
			Prompt:       strings.TrimSpace(q.Prompt),
			Options:      datatypes.NewJSONSlice(q.Options),
			CorrectIndex: q.CorrectIndex,
		})
	}
	var scrubbed []string
	out.Blocks, scrubbed = content.ScrubLesson(out.Blocks, out.Quiz)
	if len(scrubbed) > 0 {
		g.log.Debug("Scrubbed lesson content", "lesson_title", lessonTitle, "rules", scrubbed)
	}
	span.SetAttributes(
		attribute.Int("blocks.count", len(out.Blocks)),
		attribute.Int("quiz.count", len(out.Quiz)),
	)
	if len(out.Blocks) == 0 {
		g.metrics.ObserveGateway(p.Name, "empty", time.Since(start), 0)
		return GeneratedLesson{}, fmt.Errorf("%w: no usable blocks", ErrMalformedPayload)
	}
	g.metrics.ObserveGateway(p.Name, "ok", time.Since(start), 0)
	return out, nil
}
