package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

type SSEClient struct {
	ID       uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	Logger   *logger.Logger

	done      chan struct{}
	closeOnce sync.Once
}
