package coursechat

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/learny-backend/internal/observability"
	pkgerrors "github.com/yungbote/learny-backend/internal/pkg/errors"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

type Phase string

const (
	PhaseAwaitingLessonCount Phase = "awaiting_lesson_count"
	PhaseGeneratingInitial   Phase = "generating_initial"
	PhaseSuggestionsShown    Phase = "suggestions_shown"
	PhaseFinalizing          Phase = "finalizing"
	PhaseFinalized           Phase = "finalized"
	PhaseCancelled           Phase = "cancelled"
)

func (p Phase) Closed() bool {
	return p == PhaseFinalized || p == PhaseCancelled
}

type Options struct {
	LessonCountOptions []string
	// Size of the first batch when the lesson count cannot be parsed.
	DefaultTarget int
	// Size of each "more ideas" batch.
	MoreIdeasBatch int

	Log     *logger.Logger
	Metrics *observability.Metrics
}

func (o Options) withDefaults() Options {
	if len(o.LessonCountOptions) == 0 {
		o.LessonCountOptions = DefaultLessonCountOptions
	}
	if o.DefaultTarget <= 0 {
		o.DefaultTarget = 4
	}
	if o.MoreIdeasBatch <= 0 {
		o.MoreIdeasBatch = 3
	}
	if o.Log == nil {
		o.Log = logger.Nop()
	}
	return o
}

// Snapshot is an immutable copy of a conversation's observable state.
type Snapshot struct {
	ID            uuid.UUID          `json:"id"`
	Topic         string             `json:"topic"`
	Phase         Phase              `json:"phase"`
	Version       uint64             `json:"version"`
	Goal          *GoalRange         `json:"goal,omitempty"`
	Turns         []Turn             `json:"turns"`
	Suggestions   []LessonSuggestion `json:"suggestions"`
	SelectedCount int                `json:"selected_count"`
}

// Observer receives a Snapshot after every state change, in change order. It
// is called with the conversation locked and must not block or call back
// into the Conversation.
type Observer func(Snapshot)

// Conversation is one course-building chat session.
//
// Public operations apply their synchronous part immediately and queue the
// rest on a per-conversation worker, so continuations never interleave and
// turns appear exactly in scripted order. Generator calls run on the worker
// without holding the lock.
type Conversation struct {
	id      uuid.UUID
	topic   string
	gateway *Gateway
	opts    Options
	log     *logger.Logger
	metrics *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	queue  *taskQueue

	mu        sync.Mutex
	phase     Phase
	resume    Phase
	goal      *GoalRange
	tr        transcript
	pool      pool
	version   uint64
	observers map[int]Observer
	nextObs   int
}

// New opens a conversation about topic. parent bounds the conversation's
// lifetime; it should not be a request-scoped context.
func New(parent context.Context, topic string, gateway *Gateway, opts Options) *Conversation {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(parent)
	c := &Conversation{
		id:        uuid.New(),
		topic:     strings.TrimSpace(topic),
		gateway:   gateway,
		opts:      opts,
		metrics:   opts.Metrics,
		ctx:       ctx,
		cancel:    cancel,
		phase:     PhaseAwaitingLessonCount,
		pool:      newPool(),
		observers: map[int]Observer{},
	}
	c.log = opts.Log.With("conversation_id", c.id.String())
	c.queue = newTaskQueue(ctx)

	c.mu.Lock()
	c.appendTurn(RoleAssistant, PlainText{Text: welcomeText(c.topic)})
	c.appendTurn(RoleAssistant, LessonCountPrompt{Options: opts.LessonCountOptions})
	c.changed()
	c.mu.Unlock()
	return c
}

func (c *Conversation) ID() uuid.UUID { return c.id }

func (c *Conversation) Topic() string { return c.topic }

// Done is closed once the conversation is cancelled or finalized.
func (c *Conversation) Done() <-chan struct{} { return c.ctx.Done() }

func (c *Conversation) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Observe registers o and returns a func that removes it.
func (c *Conversation) Observe(o Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = o
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// SelectLessonCount answers the lesson-count prompt. Only the first call in a
// conversation has any effect.
func (c *Conversation) SelectLessonCount(option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if c.phase != PhaseAwaitingLessonCount {
		return nil
	}
	c.phase = PhaseGeneratingInitial
	c.goal = ParseGoalRange(option)

	target := c.opts.DefaultTarget
	if c.goal != nil {
		target = max(c.goal.Midpoint(), 1)
	}

	c.appendTurn(RoleUser, PlainText{Text: option})
	c.tr.removeKind(KindLessonCountPrompt)
	c.changed()

	c.queue.push(func(ctx context.Context) { c.generateInitial(ctx, option, target) })
	return nil
}

func (c *Conversation) generateInitial(ctx context.Context, option string, target int) {
	var loadingID uuid.UUID
	if !c.apply(func() {
		c.appendTurn(RoleAssistant, PlainText{Text: acknowledgeText(option, target)})
		loadingID = c.appendTurn(RoleAssistant, LoadingIndicator{Label: loadingInitialText(target)}).ID
	}) {
		return
	}

	batch := c.gateway.InitialIdeas(ctx, c.topic, target, nil)
	if ctx.Err() != nil {
		return
	}

	c.apply(func() {
		c.tr.removeID(loadingID)
		c.pool.replace(batch.Suggestions)
		c.appendTurn(RoleAssistant, SuggestionList{})
		c.appendTurn(RoleAssistant, FinalCallToAction{})
		c.appendTurn(RoleAssistant, MoreIdeasButton{})
		switch {
		case c.phase == PhaseGeneratingInitial:
			c.phase = PhaseSuggestionsShown
		case c.phase == PhaseFinalizing && c.resume == PhaseGeneratingInitial:
			c.resume = PhaseSuggestionsShown
		}
	})
}

// ToggleSelection flips the selection of suggestion id. Unknown ids are
// ignored.
func (c *Conversation) ToggleSelection(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if c.pool.toggle(id) {
		c.changed()
	}
	return nil
}

// AddUserMessage records free text and asks the generator for a clarifying
// question about it. Blank text is ignored.
func (c *Conversation) AddUserMessage(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	c.appendTurn(RoleUser, PlainText{Text: text})
	c.changed()

	c.queue.push(func(ctx context.Context) { c.clarify(ctx, text) })
	return nil
}

func (c *Conversation) clarify(ctx context.Context, text string) {
	var loadingID uuid.UUID
	if !c.apply(func() {
		loadingID = c.appendTurn(RoleAssistant, LoadingIndicator{Label: loadingClarify}).ID
	}) {
		return
	}

	clar := c.gateway.ClarifyingQuestion(ctx, c.topic, text)
	if ctx.Err() != nil {
		return
	}

	c.apply(func() {
		c.tr.removeID(loadingID)
		c.appendTurn(RoleAssistant, PlainText{Text: clar.Question})
		c.appendTurn(RoleAssistant, ClarificationPrompt{OriginalQuery: text, Options: clar.Options})
	})
}

// RespondToClarification answers an open clarification prompt with option
// and requests suggestions for the refined query.
func (c *Conversation) RespondToClarification(originalQuery, option string) error {
	option = strings.TrimSpace(option)
	if option == "" {
		return pkgerrors.ErrInvalidArgument
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	c.tr.removeKind(KindClarificationPrompt)
	c.appendTurn(RoleUser, PlainText{Text: option})
	c.changed()

	c.queue.push(func(ctx context.Context) { c.followUp(ctx, originalQuery, option) })
	return nil
}

func (c *Conversation) followUp(ctx context.Context, originalQuery, option string) {
	var (
		loadingID uuid.UUID
		titles    []string
	)
	if !c.apply(func() {
		loadingID = c.appendTurn(RoleAssistant, LoadingIndicator{Label: loadingClarify}).ID
		titles = c.pool.titles()
	}) {
		return
	}

	batch := c.gateway.FollowUpIdeas(ctx, c.topic, refinedQuery(originalQuery, option), titles)
	if ctx.Err() != nil {
		return
	}

	c.apply(func() {
		c.tr.removeID(loadingID)
		ids := c.pool.append(batch.Suggestions, false)
		c.appendTurn(RoleAssistant, PlainText{Text: followUpResponseText(option)})
		c.appendTurn(RoleAssistant, InlineSuggestionList{IDs: ids})
	})
}

// RequestMoreSuggestions asks for another small batch of ideas.
func (c *Conversation) RequestMoreSuggestions() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	c.tr.removeKind(KindMoreIdeasButton)
	c.changed()

	c.queue.push(c.moreIdeas)
	return nil
}

func (c *Conversation) moreIdeas(ctx context.Context) {
	var (
		loadingID uuid.UUID
		titles    []string
	)
	if !c.apply(func() {
		loadingID = c.appendTurn(RoleAssistant, LoadingIndicator{Label: loadingMoreIdeas}).ID
		titles = c.pool.titles()
	}) {
		return
	}

	batch := c.gateway.InitialIdeas(ctx, c.topic, c.opts.MoreIdeasBatch, titles)
	if ctx.Err() != nil {
		return
	}

	c.apply(func() {
		c.tr.removeID(loadingID)
		ids := c.pool.append(batch.Suggestions, false)
		c.appendTurn(RoleAssistant, PlainText{Text: moreIdeasResponse})
		c.appendTurn(RoleAssistant, InlineSuggestionList{IDs: ids})
		// the call to action always trails the newest content
		c.tr.removeKind(KindFinalCallToAction)
		c.tr.removeKind(KindMoreIdeasButton)
		c.appendTurn(RoleAssistant, FinalCallToAction{})
		c.appendTurn(RoleAssistant, MoreIdeasButton{})
	})
}

// Cancel tears the conversation down. Queued work is dropped and the result
// of an in-flight generator call is discarded.
func (c *Conversation) Cancel() {
	c.mu.Lock()
	if c.phase.Closed() {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseCancelled
	c.changed()
	c.mu.Unlock()
	c.cancel()
}

// Flush blocks until every operation queued before the call has finished.
// It returns ErrConversationClosed once the conversation no longer runs work.
func (c *Conversation) Flush(ctx context.Context) error {
	if c.queue.await(ctx, func(context.Context) {}) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return pkgerrors.ErrConversationClosed
}

// apply runs fn under the lock and notifies observers. It reports false,
// without running fn, once the conversation has been cancelled.
func (c *Conversation) apply(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseCancelled || c.ctx.Err() != nil {
		return false
	}
	fn()
	c.changed()
	return true
}

func (c *Conversation) checkOpenLocked() error {
	switch c.phase {
	case PhaseFinalized, PhaseCancelled:
		return pkgerrors.ErrConversationClosed
	case PhaseFinalizing:
		return pkgerrors.ErrConversationBusy
	}
	return nil
}

func (c *Conversation) appendTurn(role Role, content Content) Turn {
	t := c.tr.add(role, content)
	c.metrics.IncTurn(string(role), string(content.Kind()))
	return t
}

func (c *Conversation) changed() {
	c.version++
	if len(c.observers) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, o := range c.observers {
		o(snap)
	}
}

func (c *Conversation) snapshotLocked() Snapshot {
	var goal *GoalRange
	if c.goal != nil {
		g := *c.goal
		goal = &g
	}
	return Snapshot{
		ID:            c.id,
		Topic:         c.topic,
		Phase:         c.phase,
		Version:       c.version,
		Goal:          goal,
		Turns:         c.tr.snapshot(),
		Suggestions:   c.pool.list(),
		SelectedCount: c.pool.selectedCount(),
	}
}
