package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/learny-backend/internal/domain/learning"
	"github.com/yungbote/learny-backend/internal/http/response"
	"github.com/yungbote/learny-backend/internal/modules/coursechat"
	"github.com/yungbote/learny-backend/internal/pkg/logger"
	"github.com/yungbote/learny-backend/internal/services"
)

type ConversationHandler struct {
	log   *logger.Logger
	convs services.ConversationService
}

func NewConversationHandler(log *logger.Logger, convs services.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		log:   log.With("handler", "ConversationHandler"),
		convs: convs,
	}
}

// GET /api/lesson-count-options
func (h *ConversationHandler) LessonCountOptions(c *gin.Context) {
	response.RespondOK(c, gin.H{"options": h.convs.LessonCountOptions()})
}

type startConversationReq struct {
	Topic string `json:"topic"`
}

// POST /api/conversations
func (h *ConversationHandler) Start(c *gin.Context) {
	var req startConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	snap, err := h.convs.Start(req.Topic)
	if err != nil {
		response.RespondServiceError(c, err, "start_conversation_failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": snap})
}

// GET /api/conversations/:id
func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_conversation_id")
	if !ok {
		return
	}
	snap, err := h.convs.Snapshot(id)
	if err != nil {
		response.RespondServiceError(c, err, "load_conversation_failed")
		return
	}
	response.RespondOK(c, gin.H{"conversation": snap})
}

// DELETE /api/conversations/:id
func (h *ConversationHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_conversation_id")
	if !ok {
		return
	}
	if err := h.convs.Cancel(id); err != nil {
		response.RespondServiceError(c, err, "cancel_conversation_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

type lessonCountReq struct {
	Option string `json:"option"`
}

// POST /api/conversations/:id/lesson-count
func (h *ConversationHandler) SelectLessonCount(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_conversation_id")
	if !ok {
		return
	}
	var req lessonCountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.mutate(c, id, func() error { return h.convs.SelectLessonCount(id, req.Option) })
}

// POST /api/conversations/:id/suggestions/:sid/toggle
func (h *ConversationHandler) ToggleSelection(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_conversation_id")
	if !ok {
		return
	}
	sid, ok := parseID(c, "sid", "invalid_suggestion_id")
	if !ok {
		return
	}
	h.mutate(c, id, func() error { return h.convs.ToggleSelection(id, sid) })
}

type userMessageReq struct {
	Text string `json:"text"`
}

// POST /api/conversations/:id/messages
func (h *ConversationHandler) AddUserMessage(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_conversation_id")
	if !ok {
		return
	}
	var req userMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.mutate(c, id, func() error { return h.convs.AddUserMessage(id, req.Text) })
}

type clarificationReq struct {
	OriginalQuery string `json:"original_query"`
	Option        string `json:"option"`
}

// POST /api/conversations/:id/clarification
func (h *ConversationHandler) RespondToClarification(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_conversation_id")
	if !ok {
		return
	}
	var req clarificationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	h.mutate(c, id, func() error { return h.convs.RespondToClarification(id, req.OriginalQuery, req.Option) })
}

// POST /api/conversations/:id/more-suggestions
func (h *ConversationHandler) RequestMoreSuggestions(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_conversation_id")
	if !ok {
		return
	}
	h.mutate(c, id, func() error { return h.convs.RequestMoreSuggestions(id) })
}

// POST /api/conversations/:id/validate
func (h *ConversationHandler) Validate(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_conversation_id")
	if !ok {
		return
	}
	res, err := h.convs.Validate(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err, "validate_failed")
		return
	}
	response.RespondOK(c, res)
}

type finalizeReq struct {
	Order      []uuid.UUID      `json:"order"`
	Title      string           `json:"title"`
	Difficulty types.Difficulty `json:"difficulty"`
	Pace       types.Pace       `json:"pace"`
}

// POST /api/conversations/:id/finalize
func (h *ConversationHandler) Finalize(c *gin.Context) {
	id, ok := parseID(c, "id", "invalid_conversation_id")
	if !ok {
		return
	}
	var req finalizeReq
	// an empty body finalizes with defaults
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	course, err := h.convs.Finalize(c.Request.Context(), id, coursechat.FinalizeOptions{
		Order:      req.Order,
		Title:      req.Title,
		Difficulty: req.Difficulty,
		Pace:       req.Pace,
	})
	if err != nil {
		h.log.Warn("Finalize failed", "error", err, "conversation_id", id)
		response.RespondServiceError(c, err, "finalize_failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// mutate runs a conversation operation and answers with the current snapshot.
// With ?wait=true it first waits for the conversation's queued work.
func (h *ConversationHandler) mutate(c *gin.Context, id uuid.UUID, op func() error) {
	if err := op(); err != nil {
		response.RespondServiceError(c, err, "conversation_update_failed")
		return
	}
	status := http.StatusAccepted
	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		if err := h.convs.Flush(c.Request.Context(), id); err != nil {
			response.RespondServiceError(c, err, "conversation_flush_failed")
			return
		}
		status = http.StatusOK
	}
	snap, err := h.convs.Snapshot(id)
	if err != nil {
		response.RespondServiceError(c, err, "load_conversation_failed")
		return
	}
	c.JSON(status, gin.H{"conversation": snap})
}

func parseID(c *gin.Context, param, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}
