package prompts

const jsonOnlySystem = `You are a JSON-only curriculum assistant.`

const lessonsOutputRules = `Your response MUST be a valid JSON object with a single key 'lessons' that contains an array of objects.
Each object in the array should have a 'title' and a 'description' key.
Do not include any other text, just the raw JSON.`

// RegisterAll registers every prompt. Build calls it once on first use.
func RegisterAll() {
	RegisterSpec(Spec{
		Name:       PromptInitialLessonIdeas,
		Version:    1,
		SchemaName: "lesson_ideas",
		Schema:     LessonIdeasSchema,
		System:     jsonOnlySystem,
		User: `
You are an expert curriculum designer. A user wants to create a course about '{{.Topic}}'.
Generate {{.Count}} diverse, high-level lesson ideas for this course.
{{if .ExistingTitles}}Avoid repeating these existing lessons: {{.ExistingTitles}}.
{{end}}` + lessonsOutputRules,
		Validators: []Validator{
			RequireNonEmpty("Topic", func(in Input) string { return in.Topic }),
			RequirePositive("Count", func(in Input) int { return in.Count }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptFollowUpLessonIdeas,
		Version:    1,
		SchemaName: "lesson_ideas",
		Schema:     LessonIdeasSchema,
		System:     jsonOnlySystem,
		User: `
You are an expert curriculum designer. A user is creating a course about '{{.Topic}}'.
They have already selected the following lessons: {{.ExistingTitles}}.
The user just asked to add lessons about '{{.Query}}'.
Generate 2-3 new, specific lesson ideas based on the user's request that complement the existing lessons.
` + lessonsOutputRules,
		Validators: []Validator{
			RequireNonEmpty("Topic", func(in Input) string { return in.Topic }),
			RequireNonEmpty("Query", func(in Input) string { return in.Query }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptFulfillLessonPlan,
		Version:    1,
		SchemaName: "lesson_ideas",
		Schema:     LessonIdeasSchema,
		System:     jsonOnlySystem,
		User: `
You are an expert curriculum designer. A user is finalizing a course about '{{.Topic}}'.
They have already selected the following lessons: {{.ExistingTitles}}.
To meet their desired course length, generate exactly {{.Count}} more lesson ideas that are distinct from and complementary to the existing ones.
` + lessonsOutputRules,
		Validators: []Validator{
			RequireNonEmpty("Topic", func(in Input) string { return in.Topic }),
			RequirePositive("Count", func(in Input) int { return in.Count }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptClarifyingQuestion,
		Version:    1,
		SchemaName: "clarifying_question",
		Schema:     ClarifyingQuestionSchema,
		System:     jsonOnlySystem,
		User: `
A user is building a course about '{{.Topic}}' and wrote: '{{.Query}}'.
Ask one short, friendly clarifying question about which aspect of their request to focus on,
and offer 2-3 short answer options.
Return a JSON object with keys 'question' (string) and 'options' (array of 2-3 strings). No other text.`,
		Validators: []Validator{
			RequireNonEmpty("Query", func(in Input) string { return in.Query }),
		},
	})

	RegisterSpec(Spec{
		Name:       PromptLessonContent,
		Version:    1,
		SchemaName: "lesson_content",
		Schema:     LessonContentSchema,
		System:     jsonOnlySystem,
		User: `
You are an expert curriculum designer. Create a detailed lesson for a course on '{{.Topic}}'.
The lesson title is '{{.LessonTitle}}'.
Return a JSON object with:
- 'blocks': an array where each item has a 'type' (text, dialogue, or matching) and the matching fields:
  - text: a 'text' field with a paragraph.
  - dialogue: a 'lines' array of objects with 'speaker' and 'text'.
  - matching: a 'pairs' array of objects with 'term' and 'definition'.
- 'quiz': 3-5 multiple choice questions, each with 'prompt', 'options' (array of strings) and 'correct_index' (0-based).
Return only the JSON object.`,
		Validators: []Validator{
			RequireNonEmpty("Topic", func(in Input) string { return in.Topic }),
			RequireNonEmpty("LessonTitle", func(in Input) string { return in.LessonTitle }),
		},
	})
}
