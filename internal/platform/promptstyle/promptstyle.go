package promptstyle

import "strings"

const marker = "LEARNY_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to a system prompt. It is a
// no-op for empty prompts and for prompts that already carry the block.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou help learners plan short courses in Learny.")
	b.WriteString("\nFollow the system and user instructions precisely.")
	if mode == "json" {
		b.WriteString("\nReturn a single JSON object in the requested shape. No markdown fences, no commentary.")
	} else {
		b.WriteString("\nBe concise.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
