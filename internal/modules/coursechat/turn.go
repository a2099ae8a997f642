package coursechat

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ContentKind string

const (
	KindPlainText            ContentKind = "plain_text"
	KindLessonCountPrompt    ContentKind = "lesson_count_prompt"
	KindLoadingIndicator     ContentKind = "loading_indicator"
	KindSuggestionList       ContentKind = "suggestion_list"
	KindInlineSuggestionList ContentKind = "inline_suggestion_list"
	KindClarificationPrompt  ContentKind = "clarification_prompt"
	KindInfoText             ContentKind = "info_text"
	KindFinalCallToAction    ContentKind = "final_call_to_action"
	KindMoreIdeasButton      ContentKind = "more_ideas_button"
)

// Content is the payload of a Turn. The set of implementations is closed:
// only the types in this file satisfy it.
type Content interface {
	Kind() ContentKind
	isContent()
}

type PlainText struct {
	Text string `json:"text"`
}

// LessonCountPrompt asks for one of Options. At most one is active at a time.
type LessonCountPrompt struct {
	Options []string `json:"options"`
}

type LoadingIndicator struct {
	Label string `json:"label"`
}

// SuggestionList renders the whole current pool.
type SuggestionList struct{}

// InlineSuggestionList renders only the listed suggestions.
type InlineSuggestionList struct {
	IDs []uuid.UUID `json:"ids"`
}

type ClarificationPrompt struct {
	OriginalQuery string   `json:"original_query"`
	Options       []string `json:"options"`
}

// InfoText is a neutral notice. The scripted flow does not emit it yet; it
// exists so clients can render it when it appears.
type InfoText struct {
	Text string `json:"text"`
}

type FinalCallToAction struct{}

type MoreIdeasButton struct{}

func (PlainText) Kind() ContentKind            { return KindPlainText }
func (LessonCountPrompt) Kind() ContentKind    { return KindLessonCountPrompt }
func (LoadingIndicator) Kind() ContentKind     { return KindLoadingIndicator }
func (SuggestionList) Kind() ContentKind       { return KindSuggestionList }
func (InlineSuggestionList) Kind() ContentKind { return KindInlineSuggestionList }
func (ClarificationPrompt) Kind() ContentKind  { return KindClarificationPrompt }
func (InfoText) Kind() ContentKind             { return KindInfoText }
func (FinalCallToAction) Kind() ContentKind    { return KindFinalCallToAction }
func (MoreIdeasButton) Kind() ContentKind      { return KindMoreIdeasButton }

func (PlainText) isContent()            {}
func (LessonCountPrompt) isContent()    {}
func (LoadingIndicator) isContent()     {}
func (SuggestionList) isContent()       {}
func (InlineSuggestionList) isContent() {}
func (ClarificationPrompt) isContent()  {}
func (InfoText) isContent()             {}
func (FinalCallToAction) isContent()    {}
func (MoreIdeasButton) isContent()      {}

type Turn struct {
	ID      uuid.UUID
	Role    Role
	Content Content
}

func (t Turn) Kind() ContentKind {
	if t.Content == nil {
		return ""
	}
	return t.Content.Kind()
}

func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID      uuid.UUID   `json:"id"`
		Role    Role        `json:"role"`
		Kind    ContentKind `json:"kind"`
		Content Content     `json:"content"`
	}{t.ID, t.Role, t.Kind(), t.Content})
}

func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      uuid.UUID       `json:"id"`
		Role    Role            `json:"role"`
		Kind    ContentKind     `json:"kind"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := decodeContent(raw.Kind, raw.Content)
	if err != nil {
		return err
	}
	*t = Turn{ID: raw.ID, Role: raw.Role, Content: content}
	return nil
}

func decodeContent(kind ContentKind, raw json.RawMessage) (Content, error) {
	switch kind {
	case KindPlainText:
		return decodeAs[PlainText](raw)
	case KindLessonCountPrompt:
		return decodeAs[LessonCountPrompt](raw)
	case KindLoadingIndicator:
		return decodeAs[LoadingIndicator](raw)
	case KindSuggestionList:
		return decodeAs[SuggestionList](raw)
	case KindInlineSuggestionList:
		return decodeAs[InlineSuggestionList](raw)
	case KindClarificationPrompt:
		return decodeAs[ClarificationPrompt](raw)
	case KindInfoText:
		return decodeAs[InfoText](raw)
	case KindFinalCallToAction:
		return decodeAs[FinalCallToAction](raw)
	case KindMoreIdeasButton:
		return decodeAs[MoreIdeasButton](raw)
	default:
		return nil, fmt.Errorf("unknown turn kind %q", kind)
	}
}

func decodeAs[T Content](raw json.RawMessage) (Content, error) {
	var v T
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// transcript is the ordered turn log. Insertion order is display order.
type transcript struct {
	turns []Turn
}

func (tr *transcript) add(role Role, content Content) Turn {
	t := Turn{ID: uuid.New(), Role: role, Content: cloneContent(content)}
	tr.turns = append(tr.turns, t)
	return t
}

func (tr *transcript) removeID(id uuid.UUID) bool {
	for i, t := range tr.turns {
		if t.ID == id {
			tr.turns = append(tr.turns[:i], tr.turns[i+1:]...)
			return true
		}
	}
	return false
}

func (tr *transcript) removeKind(kind ContentKind) int {
	kept := tr.turns[:0]
	removed := 0
	for _, t := range tr.turns {
		if t.Kind() == kind {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < len(tr.turns); i++ {
		tr.turns[i] = Turn{}
	}
	tr.turns = kept
	return removed
}

func (tr *transcript) snapshot() []Turn {
	out := make([]Turn, len(tr.turns))
	for i, t := range tr.turns {
		out[i] = Turn{ID: t.ID, Role: t.Role, Content: cloneContent(t.Content)}
	}
	return out
}

// cloneContent copies slice payloads so snapshots never alias live state.
func cloneContent(c Content) Content {
	switch v := c.(type) {
	case LessonCountPrompt:
		return LessonCountPrompt{Options: append([]string(nil), v.Options...)}
	case InlineSuggestionList:
		return InlineSuggestionList{IDs: append([]uuid.UUID(nil), v.IDs...)}
	case ClarificationPrompt:
		return ClarificationPrompt{OriginalQuery: v.OriginalQuery, Options: append([]string(nil), v.Options...)}
	default:
		return c
	}
}
