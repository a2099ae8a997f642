package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learny-backend/internal/http/response"
	"github.com/yungbote/learny-backend/internal/pkg/dbctx"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
	"github.com/yungbote/learny-backend/internal/services"
)

type CourseHandler struct {
	log     *logger.Logger
	courses services.CourseService
	content services.LessonContentService
}

func NewCourseHandler(log *logger.Logger, courses services.CourseService, content services.LessonContentService) *CourseHandler {
	return &CourseHandler{
		log:     log.With("handler", "CourseHandler"),
		courses: courses,
		content: content,
	}
}

// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	courses, err := h.courses.LoadCourses(dbctx.Context{Ctx: c.Request.Context()})
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "load_courses_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	course, err := h.courses.GetCourse(dbctx.Context{Ctx: c.Request.Context()}, courseID)
	if err != nil {
		response.RespondServiceError(c, err, "load_course_failed")
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// PUT /api/courses/:id
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	var req services.CourseUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	course, err := h.courses.UpdateCourse(dbctx.Context{Ctx: c.Request.Context()}, courseID, req)
	if err != nil {
		response.RespondServiceError(c, err, "update_course_failed")
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// DELETE /api/courses/:id
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	courseID, ok := parseID(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	if err := h.courses.DeleteCourse(dbctx.Context{Ctx: c.Request.Context()}, courseID); err != nil {
		response.RespondServiceError(c, err, "delete_course_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/courses/:id/content
func (h *CourseHandler) GenerateContent(c *gin.Context) {
	courseID, ok := parseID(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	report, err := h.content.Generate(dbctx.Context{Ctx: c.Request.Context()}, courseID)
	if err != nil {
		h.log.Warn("GenerateContent failed", "error", err, "course_id", courseID)
		response.RespondServiceError(c, err, "generate_content_failed")
		return
	}
	response.RespondOK(c, report)
}

// POST /api/courses/:id/lessons/:lid/complete
func (h *CourseHandler) CompleteLesson(c *gin.Context) {
	courseID, ok := parseID(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	lessonID, ok := parseID(c, "lid", "invalid_lesson_id")
	if !ok {
		return
	}
	course, err := h.courses.CompleteLesson(dbctx.Context{Ctx: c.Request.Context()}, courseID, lessonID)
	if err != nil {
		response.RespondServiceError(c, err, "complete_lesson_failed")
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

type submitQuizReq struct {
	Answers []int `json:"answers"`
}

// POST /api/courses/:id/lessons/:lid/quiz
func (h *CourseHandler) SubmitQuiz(c *gin.Context) {
	courseID, ok := parseID(c, "id", "invalid_course_id")
	if !ok {
		return
	}
	lessonID, ok := parseID(c, "lid", "invalid_lesson_id")
	if !ok {
		return
	}
	var req submitQuizReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.courses.SubmitQuiz(dbctx.Context{Ctx: c.Request.Context()}, courseID, lessonID, req.Answers)
	if err != nil {
		response.RespondServiceError(c, err, "submit_quiz_failed")
		return
	}
	response.RespondOK(c, res)
}
