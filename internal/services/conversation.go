package services

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	types "github.com/yungbote/learny-backend/internal/domain/learning"
	"github.com/yungbote/learny-backend/internal/modules/coursechat"
	"github.com/yungbote/learny-backend/internal/observability"
	"github.com/yungbote/learny-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/learny-backend/internal/pkg/errors"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

type ConversationConfig struct {
	LessonCountOptions []string
	DefaultTarget      int
	MoreIdeasBatch     int
}

// ValidateResult is the outcome of the "validate and proceed" step.
type ValidateResult struct {
	Ready      bool                `json:"ready"`
	Reconciled bool                `json:"reconciled"`
	Added      int                 `json:"added"`
	Deficit    int                 `json:"deficit"`
	Snapshot   coursechat.Snapshot `json:"snapshot"`
}

type ConversationService interface {
	LessonCountOptions() []string
	Start(topic string) (coursechat.Snapshot, error)
	Snapshot(id uuid.UUID) (coursechat.Snapshot, error)
	Cancel(id uuid.UUID) error

	SelectLessonCount(id uuid.UUID, option string) error
	ToggleSelection(id, suggestionID uuid.UUID) error
	AddUserMessage(id uuid.UUID, text string) error
	RespondToClarification(id uuid.UUID, originalQuery, option string) error
	RequestMoreSuggestions(id uuid.UUID) error

	// Flush waits until queued work of the conversation has settled.
	Flush(ctx context.Context, id uuid.UUID) error
	Validate(ctx context.Context, id uuid.UUID) (*ValidateResult, error)
	Finalize(ctx context.Context, id uuid.UUID, opts coursechat.FinalizeOptions) (*types.Course, error)

	// Close cancels every open conversation.
	Close()
}

type conversationService struct {
	log     *logger.Logger
	gateway *coursechat.Gateway
	courses CourseService
	emit    SSEEmitter
	metrics *observability.Metrics
	cfg     ConversationConfig

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	convs map[uuid.UUID]*coursechat.Conversation
}

func NewConversationService(
	baseLog *logger.Logger,
	gateway *coursechat.Gateway,
	courses CourseService,
	emit SSEEmitter,
	metrics *observability.Metrics,
	cfg ConversationConfig,
) ConversationService {
	if len(cfg.LessonCountOptions) == 0 {
		cfg.LessonCountOptions = coursechat.DefaultLessonCountOptions
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &conversationService{
		log:     baseLog.With("service", "ConversationService"),
		gateway: gateway,
		courses: courses,
		emit:    emit,
		metrics: metrics,
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
		convs:   map[uuid.UUID]*coursechat.Conversation{},
	}
}

func (s *conversationService) LessonCountOptions() []string {
	return append([]string(nil), s.cfg.LessonCountOptions...)
}

func (s *conversationService) Start(topic string) (coursechat.Snapshot, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return coursechat.Snapshot{}, pkgerrors.ErrInvalidArgument
	}
	if s.ctx.Err() != nil {
		return coursechat.Snapshot{}, pkgerrors.ErrConversationClosed
	}

	conv := coursechat.New(s.ctx, topic, s.gateway, coursechat.Options{
		LessonCountOptions: s.cfg.LessonCountOptions,
		DefaultTarget:      s.cfg.DefaultTarget,
		MoreIdeasBatch:     s.cfg.MoreIdeasBatch,
		Log:                s.log,
		Metrics:            s.metrics,
	})
	pub := newSnapshotPublisher(s.emit, conv.ID().String())
	conv.Observe(pub.offer)
	go pub.run(conv.Done())

	s.mu.Lock()
	s.convs[conv.ID()] = conv
	s.mu.Unlock()
	s.metrics.ConversationOpened()

	s.log.Info("Conversation started", "conversation_id", conv.ID())
	snap := conv.Snapshot()
	pub.offer(snap)
	return snap, nil
}

func (s *conversationService) get(id uuid.UUID) (*coursechat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.convs[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return conv, nil
}

// remove drops id from the registry; the caller closes the conversation.
func (s *conversationService) remove(id uuid.UUID) *coursechat.Conversation {
	s.mu.Lock()
	conv, ok := s.convs[id]
	delete(s.convs, id)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	s.metrics.ConversationClosed()
	return conv
}

func (s *conversationService) Snapshot(id uuid.UUID) (coursechat.Snapshot, error) {
	conv, err := s.get(id)
	if err != nil {
		return coursechat.Snapshot{}, err
	}
	return conv.Snapshot(), nil
}

func (s *conversationService) Cancel(id uuid.UUID) error {
	conv := s.remove(id)
	if conv == nil {
		return pkgerrors.ErrNotFound
	}
	conv.Cancel()
	s.log.Info("Conversation cancelled", "conversation_id", id)
	return nil
}

func (s *conversationService) SelectLessonCount(id uuid.UUID, option string) error {
	conv, err := s.get(id)
	if err != nil {
		return err
	}
	return conv.SelectLessonCount(option)
}

func (s *conversationService) ToggleSelection(id, suggestionID uuid.UUID) error {
	conv, err := s.get(id)
	if err != nil {
		return err
	}
	return conv.ToggleSelection(suggestionID)
}

func (s *conversationService) AddUserMessage(id uuid.UUID, text string) error {
	conv, err := s.get(id)
	if err != nil {
		return err
	}
	return conv.AddUserMessage(text)
}

func (s *conversationService) RespondToClarification(id uuid.UUID, originalQuery, option string) error {
	conv, err := s.get(id)
	if err != nil {
		return err
	}
	return conv.RespondToClarification(originalQuery, option)
}

func (s *conversationService) RequestMoreSuggestions(id uuid.UUID) error {
	conv, err := s.get(id)
	if err != nil {
		return err
	}
	return conv.RequestMoreSuggestions()
}

func (s *conversationService) Flush(ctx context.Context, id uuid.UUID) error {
	conv, err := s.get(id)
	if err != nil {
		return err
	}
	return conv.Flush(ctx)
}

func (s *conversationService) Validate(ctx context.Context, id uuid.UUID) (*ValidateResult, error) {
	conv, err := s.get(id)
	if err != nil {
		return nil, err
	}
	res, err := conv.Validate(ctx)
	if err != nil {
		return nil, err
	}
	return &ValidateResult{
		Ready:      res.Ready(),
		Reconciled: res.Deficit > 0,
		Added:      len(res.Added),
		Deficit:    res.Deficit,
		Snapshot:   conv.Snapshot(),
	}, nil
}

// Finalize persists the conversation's course and drops the conversation.
func (s *conversationService) Finalize(ctx context.Context, id uuid.UUID, opts coursechat.FinalizeOptions) (*types.Course, error) {
	conv, err := s.get(id)
	if err != nil {
		return nil, err
	}
	course, err := conv.Finalize(ctx, opts, func(ctx context.Context, course *types.Course) error {
		return s.courses.AddCourse(dbctx.Context{Ctx: ctx}, course)
	})
	if err != nil {
		if conv.Phase().Closed() {
			s.remove(id)
		}
		return nil, err
	}
	s.remove(id)
	s.log.Info("Conversation finalized", "conversation_id", id, "course_id", course.ID)
	return course, nil
}

func (s *conversationService) Close() {
	s.mu.Lock()
	open := make([]*coursechat.Conversation, 0, len(s.convs))
	for id, conv := range s.convs {
		open = append(open, conv)
		delete(s.convs, id)
	}
	s.mu.Unlock()

	for _, conv := range open {
		conv.Cancel()
		s.metrics.ConversationClosed()
	}
	s.cancel()
}
