package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/learny-backend/internal/http"
	httpH "github.com/yungbote/learny-backend/internal/http/handlers"
	"github.com/yungbote/learny-backend/internal/observability"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
	"github.com/yungbote/learny-backend/internal/realtime"
)

type Handlers struct {
	Health       *httpH.HealthHandler
	Conversation *httpH.ConversationHandler
	Course       *httpH.CourseHandler
	Realtime     *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(),
		Conversation: httpH.NewConversationHandler(log, services.Conversation),
		Course:       httpH.NewCourseHandler(log, services.Course, services.LessonContent),
		Realtime:     httpH.NewRealtimeHandler(sseHub),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	serviceName := ""
	if observability.TracingEnabled() {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		ServiceName:         serviceName,
		HealthHandler:       handlers.Health,
		ConversationHandler: handlers.Conversation,
		CourseHandler:       handlers.Course,
		RealtimeHandler:     handlers.Realtime,
	})
}
