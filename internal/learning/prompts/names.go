package prompts

type PromptName string

const (
	// Lesson ideas
	PromptInitialLessonIdeas  PromptName = "initial_lesson_ideas"
	PromptFollowUpLessonIdeas PromptName = "follow_up_lesson_ideas"
	PromptFulfillLessonPlan   PromptName = "fulfill_lesson_plan"

	// Conversation
	PromptClarifyingQuestion PromptName = "clarifying_question"

	// Realization
	PromptLessonContent PromptName = "lesson_content"
)
