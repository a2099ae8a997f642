package coursechat

import "fmt"

const (
	loadingClarify    = "Thinking of new ideas..."
	loadingMoreIdeas  = "Generating a few more suggestions..."
	loadingReconcile  = "Adding lessons to your plan..."
	moreIdeasResponse = "Of course! Here are a few more ideas:"
)

var fallbackClarificationOptions = []string{"The basics", "Advanced concepts", "Historical context"}

func welcomeText(topic string) string {
	return fmt.Sprintf("Welcome to your %s learning journey! To start, about how many lessons should we create for your course?", topic)
}

func acknowledgeText(option string, target int) string {
	return fmt.Sprintf("Great! For a course with %s, I'll start you off with %d ideas. You can customize them from there.", option, target)
}

func loadingInitialText(target int) string {
	return fmt.Sprintf("Generating your first %d lesson ideas...", target)
}

func followUpResponseText(option string) string {
	return fmt.Sprintf("Perfect. Based on your interest in '%s', here are a few lesson ideas I've come up with:", option)
}

func refinedQuery(originalQuery, option string) string {
	return fmt.Sprintf("%s with a focus on %s", originalQuery, option)
}

func shortfallText(min, selected, deficit int) string {
	return fmt.Sprintf("You were aiming for at least %d lessons, but only had %d. I'll add %d more to help you meet your goal.", min, selected, deficit)
}

func addedText(n int) string {
	return fmt.Sprintf("I've added %d more lessons to your plan.", n)
}

func fallbackClarificationQuestion(text string) string {
	return fmt.Sprintf("Interesting! Can you tell me a bit more about what aspects of '%s' you'd like to focus on?", text)
}
