package realtime

type SSEEvent string

const (
	SSEEventConversationUpdated SSEEvent = "ConversationUpdated"
	SSEEventConversationClosed  SSEEvent = "ConversationClosed"
	SSEEventCourseSaved         SSEEvent = "CourseSaved"
	SSEEventCourseDeleted       SSEEvent = "CourseDeleted"
	SSEEventLessonContentReady  SSEEvent = "LessonContentReady"
)

// Known reports whether e is one of the events above.
func (e SSEEvent) Known() bool {
	switch e {
	case SSEEventConversationUpdated, SSEEventConversationClosed,
		SSEEventCourseSaved, SSEEventCourseDeleted, SSEEventLessonContentReady:
		return true
	}
	return false
}

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// CoursesChannel carries course-library events.
const CoursesChannel = "courses"
