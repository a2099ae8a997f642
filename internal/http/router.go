package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/learny-backend/internal/http/handlers"
	httpMW "github.com/yungbote/learny-backend/internal/http/middleware"
	"github.com/yungbote/learny-backend/internal/observability"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics
	// ServiceName enables otelgin spans when non-empty.
	ServiceName string

	ConversationHandler *httpH.ConversationHandler
	CourseHandler       *httpH.CourseHandler
	RealtimeHandler     *httpH.RealtimeHandler
	HealthHandler       *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Conversations
		if cfg.ConversationHandler != nil {
			h := cfg.ConversationHandler
			api.GET("/lesson-count-options", h.LessonCountOptions)
			api.POST("/conversations", h.Start)
			api.GET("/conversations/:id", h.Get)
			api.DELETE("/conversations/:id", h.Cancel)
			api.POST("/conversations/:id/lesson-count", h.SelectLessonCount)
			api.POST("/conversations/:id/suggestions/:sid/toggle", h.ToggleSelection)
			api.POST("/conversations/:id/messages", h.AddUserMessage)
			api.POST("/conversations/:id/clarification", h.RespondToClarification)
			api.POST("/conversations/:id/more-suggestions", h.RequestMoreSuggestions)
			api.POST("/conversations/:id/validate", h.Validate)
			api.POST("/conversations/:id/finalize", h.Finalize)
		}

		// Courses
		if cfg.CourseHandler != nil {
			h := cfg.CourseHandler
			api.GET("/courses", h.ListCourses)
			api.GET("/courses/:id", h.GetCourse)
			api.PUT("/courses/:id", h.UpdateCourse)
			api.DELETE("/courses/:id", h.DeleteCourse)
			api.POST("/courses/:id/content", h.GenerateContent)
			api.POST("/courses/:id/lessons/:lid/complete", h.CompleteLesson)
			api.POST("/courses/:id/lessons/:lid/quiz", h.SubmitQuiz)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
			api.POST("/sse/subscribe", cfg.RealtimeHandler.SSESubscribe)
			api.POST("/sse/unsubscribe", cfg.RealtimeHandler.SSEUnsubscribe)
		}
	}

	return r
}
