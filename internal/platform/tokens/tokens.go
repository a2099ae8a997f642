package tokens

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

func getCodec() tokenizer.Codec {
	codecOnce.Do(func() {
		c, err := tokenizer.ForModel(tokenizer.GPT4)
		if err == nil {
			codec = c
		}
	})
	return codec
}

// Count returns the token count of text, falling back to a 4-bytes-per-token
// estimate when the encoder is unavailable.
func Count(text string) int {
	if text == "" {
		return 0
	}
	if c := getCodec(); c != nil {
		if n, err := c.Count(text); err == nil {
			return n
		}
	}
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// JoinWithinBudget joins items with sep, keeping the most recent items that
// fit in budget tokens. Order of the kept items is preserved. A non-positive
// budget keeps everything.
func JoinWithinBudget(items []string, sep string, budget int) string {
	clean := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			clean = append(clean, s)
		}
	}
	if budget <= 0 || len(clean) == 0 {
		return strings.Join(clean, sep)
	}
	sepCost := Count(sep)
	used := 0
	start := len(clean)
	for i := len(clean) - 1; i >= 0; i-- {
		cost := Count(clean[i])
		if start < len(clean) {
			cost += sepCost
		}
		if used+cost > budget {
			break
		}
		used += cost
		start = i
	}
	return strings.Join(clean[start:], sep)
}
