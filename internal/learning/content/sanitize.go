package content

import (
	"regexp"
	"strings"

	types "github.com/yungbote/learny-backend/internal/domain/learning"
)

type scrubRule struct {
	Label       string
	Re          *regexp.Regexp
	Replacement string
}

var wsRE = regexp.MustCompile(`[ \t]{2,}`)

// Assistant chatter that generators sometimes leave in learner-facing text.
var lessonMetaScrubRules = []scrubRule{
	{Label: "sure, here", Re: regexp.MustCompile(`(?i)^\s*(sure|certainly|of course)[,!.]\s*(here('s| is)[^.:]*[.:])?\s*`), Replacement: ""},
	{Label: "here's the lesson", Re: regexp.MustCompile(`(?i)here('s| is) (the|your) lesson[^.:]*[.:]\s*`), Replacement: ""},
	{Label: "i can tailor this", Re: regexp.MustCompile(`(?i)i can tailor this[^.]*\.?`), Replacement: ""},
	{Label: "before we dive in", Re: regexp.MustCompile(`(?i)before we dive in,?\s*`), Replacement: ""},
	{Label: "if you want to go deeper", Re: regexp.MustCompile(`(?i)if you('d like| want) to go deeper[^.]*\.?`), Replacement: ""},
	{Label: "let me know if you want", Re: regexp.MustCompile(`(?i)let me know if you('d like| want)[^.]*\.?`), Replacement: ""},
	{Label: "as an ai", Re: regexp.MustCompile(`(?i)as an ai( language model)?,?\s*`), Replacement: ""},
}

func scrubMetaText(s string) (string, []string) {
	if strings.TrimSpace(s) == "" {
		return s, nil
	}
	orig := s
	hit := make([]string, 0)
	for _, r := range lessonMetaScrubRules {
		if r.Re.MatchString(s) {
			s = r.Re.ReplaceAllString(s, r.Replacement)
			hit = append(hit, r.Label)
		}
	}
	if s != orig {
		s = wsRE.ReplaceAllString(s, " ")
		s = strings.ReplaceAll(s, " \n", "\n")
		s = strings.ReplaceAll(s, "\n ", "\n")
		s = strings.TrimSpace(s)
	}
	return s, dedupeStrings(hit)
}

// ScrubLesson strips assistant chatter from learner-facing text and drops
// blocks left empty by it. The returned labels name the rules that fired.
func ScrubLesson(blocks []types.ContentBlock, quiz []*types.QuizQuestion) ([]types.ContentBlock, []string) {
	hit := make([]string, 0)
	var h []string

	kept := make([]types.ContentBlock, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case types.BlockText:
			b.Text, h = scrubMetaText(b.Text)
			hit = append(hit, h...)
			if b.Text == "" {
				hit = append(hit, "empty_text_block")
				continue
			}
		case types.BlockDialogue:
			lines := b.Lines[:0]
			for _, l := range b.Lines {
				l.Text, h = scrubMetaText(l.Text)
				hit = append(hit, h...)
				if l.Text != "" {
					lines = append(lines, l)
				}
			}
			if len(lines) == 0 {
				hit = append(hit, "empty_dialogue_block")
				continue
			}
			b.Lines = lines
		case types.BlockMatching:
			// terms are quoted back to the learner verbatim
			for i := range b.Pairs {
				b.Pairs[i].Definition, h = scrubMetaText(b.Pairs[i].Definition)
				hit = append(hit, h...)
			}
		}
		kept = append(kept, b)
	}

	for _, q := range quiz {
		if q == nil {
			continue
		}
		q.Prompt, h = scrubMetaText(q.Prompt)
		hit = append(hit, h...)
	}

	return kept, dedupeStrings(hit)
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
