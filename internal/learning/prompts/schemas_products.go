package prompts

// LessonIdeasSchema is shared by every prompt that returns lesson suggestions.
// Only title is required; description may be missing.
func LessonIdeasSchema() map[string]any {
	return ObjectSchema(map[string]any{
		"lessons": ArrayOf(ObjectSchema(map[string]any{
			"title":       StringSchema(),
			"description": StringSchema(),
		}, "title")),
	}, "lessons")
}

func ClarifyingQuestionSchema() map[string]any {
	options := StringArraySchema()
	options["minItems"] = 2
	options["maxItems"] = 3
	return ObjectSchema(map[string]any{
		"question": StringSchema(),
		"options":  options,
	}, "question", "options")
}

func LessonContentSchema() map[string]any {
	block := ObjectSchema(map[string]any{
		"type": EnumSchema("text", "dialogue", "matching"),
		"text": StringSchema(),
		"lines": ArrayOf(ObjectSchema(map[string]any{
			"speaker": StringSchema(),
			"text":    StringSchema(),
		}, "speaker", "text")),
		"pairs": ArrayOf(ObjectSchema(map[string]any{
			"term":       StringSchema(),
			"definition": StringSchema(),
		}, "term", "definition")),
	}, "type")
	question := ObjectSchema(map[string]any{
		"prompt":        StringSchema(),
		"options":       StringArraySchema(),
		"correct_index": IntSchema(),
	}, "prompt", "options", "correct_index")
	return ObjectSchema(map[string]any{
		"blocks": ArrayOf(block),
		"quiz":   ArrayOf(question),
	}, "blocks")
}
