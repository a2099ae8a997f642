package prompts

// Input is a superset of all fields any prompt might need.
// Missing fields render empty strings (templates use missingkey=zero).
type Input struct {
	Topic string
	// Number of lesson ideas requested
	Count int
	// Free text typed by the learner, or a refined query
	Query string
	// Comma-separated titles already in the plan, trimmed to a token budget
	ExistingTitles string
	LessonTitle    string
}
