package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/learny-backend/internal/modules/coursechat"
	"github.com/yungbote/learny-backend/internal/observability"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
	"github.com/yungbote/learny-backend/internal/realtime"
	"github.com/yungbote/learny-backend/internal/services"
)

type Services struct {
	Emitter       services.SSEEmitter
	Gateway       *coursechat.Gateway
	Course        services.CourseService
	LessonContent services.LessonContentService
	Conversation  services.ConversationService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, hub *realtime.SSEHub, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	// With a bus every instance's hub is fed by the forwarder, this one included.
	var emit services.SSEEmitter = &services.HubEmitter{Hub: hub}
	if clients.SSEBus != nil {
		emit = &services.BusEmitter{Bus: clients.SSEBus, Log: log}
	}

	gateway := coursechat.NewGateway(clients.Generator, log, metrics, coursechat.GatewayConfig{
		ContextTokenBudget: cfg.Conversation.ContextTokenBudget,
	})

	course := services.NewCourseService(db, log, repos.Course, repos.Lesson, repos.QuizQuestion, emit)
	content := services.NewLessonContentService(log, course, gateway, emit, metrics, cfg.LessonContent.Concurrency)
	conversation := services.NewConversationService(log, gateway, course, emit, metrics, services.ConversationConfig{
		LessonCountOptions: cfg.Conversation.LessonCountOptions,
		DefaultTarget:      cfg.Conversation.DefaultTarget,
		MoreIdeasBatch:     cfg.Conversation.MoreIdeasBatch,
	})

	return Services{
		Emitter:       emit,
		Gateway:       gateway,
		Course:        course,
		LessonContent: content,
		Conversation:  conversation,
	}
}
