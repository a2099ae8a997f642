package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learny-backend/internal/realtime"
)

type RealtimeHandler struct {
	Hub *realtime.SSEHub
}

func NewRealtimeHandler(hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{Hub: hub}
}

// GET /api/sse/stream?channel=a&channel=b
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	client := h.Hub.NewSSEClient()
	defer h.Hub.CloseClient(client)

	h.Hub.AddChannel(client, realtime.CoursesChannel)
	for _, ch := range c.QueryArray("channel") {
		for _, part := range strings.Split(ch, ",") {
			h.Hub.AddChannel(client, part)
		}
	}

	h.Hub.ServeHTTP(c.Writer, c.Request, client)
}

type sseChannelReq struct {
	ClientID string `json:"client_id"`
	Channel  string `json:"channel"`
}

// POST /api/sse/subscribe
func (h *RealtimeHandler) SSESubscribe(c *gin.Context) {
	client, channel, ok := h.bindChannelReq(c)
	if !ok {
		return
	}
	h.Hub.AddChannel(client, channel)
	c.JSON(http.StatusOK, gin.H{"message": "subscribed", "channel": channel})
}

// POST /api/sse/unsubscribe
func (h *RealtimeHandler) SSEUnsubscribe(c *gin.Context) {
	client, channel, ok := h.bindChannelReq(c)
	if !ok {
		return
	}
	h.Hub.RemoveChannel(client, channel)
	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed", "channel": channel})
}

func (h *RealtimeHandler) bindChannelReq(c *gin.Context) (*realtime.SSEClient, string, bool) {
	var req sseChannelReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Channel) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel"})
		return nil, "", false
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client id"})
		return nil, "", false
	}
	client, exists := h.Hub.Client(clientID)
	if !exists {
		c.JSON(http.StatusConflict, gin.H{"error": "no active SSE connection for this client"})
		return nil, "", false
	}
	return client, strings.TrimSpace(req.Channel), true
}
