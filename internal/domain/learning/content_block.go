package learning

import (
	"strings"

	"github.com/google/uuid"
)

type BlockType string

const (
	BlockText     BlockType = "text"
	BlockDialogue BlockType = "dialogue"
	BlockMatching BlockType = "matching"
)

// ContentBlock is one unit of lesson content. Type selects which of Text,
// Lines or Pairs is meaningful.
type ContentBlock struct {
	ID    uuid.UUID      `json:"id"`
	Type  BlockType      `json:"type"`
	Text  string         `json:"text,omitempty"`
	Lines []DialogueLine `json:"lines,omitempty"`
	Pairs []MatchingPair `json:"pairs,omitempty"`
}

type DialogueLine struct {
	ID      uuid.UUID `json:"id"`
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
}

type MatchingPair struct {
	ID         uuid.UUID `json:"id"`
	Term       string    `json:"term"`
	Definition string    `json:"definition"`
}

func NewTextBlock(text string) ContentBlock {
	return ContentBlock{ID: uuid.New(), Type: BlockText, Text: text}
}

func NewDialogueBlock(lines []DialogueLine) ContentBlock {
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
	}
	return ContentBlock{ID: uuid.New(), Type: BlockDialogue, Lines: lines}
}

func NewMatchingBlock(pairs []MatchingPair) ContentBlock {
	for i := range pairs {
		if pairs[i].ID == uuid.Nil {
			pairs[i].ID = uuid.New()
		}
	}
	return ContentBlock{ID: uuid.New(), Type: BlockMatching, Pairs: pairs}
}

// ParseBlockType maps a generator-supplied type name to a BlockType. Unknown
// names report false.
func ParseBlockType(raw string) (BlockType, bool) {
	switch BlockType(strings.ToLower(strings.TrimSpace(raw))) {
	case BlockText:
		return BlockText, true
	case BlockDialogue:
		return BlockDialogue, true
	case BlockMatching:
		return BlockMatching, true
	}
	return "", false
}
