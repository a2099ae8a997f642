package services

import (
	"context"
	"sync"

	"github.com/yungbote/learny-backend/internal/modules/coursechat"
	"github.com/yungbote/learny-backend/internal/realtime"
)

// snapshotPublisher forwards conversation snapshots to an emitter from its
// own goroutine. Only the newest pending snapshot is kept, so a slow emitter
// skips intermediate versions but never sees them out of order.
type snapshotPublisher struct {
	emit    SSEEmitter
	channel string

	mu      sync.Mutex
	latest  *coursechat.Snapshot
	version uint64
	wake    chan struct{}
}

func newSnapshotPublisher(emit SSEEmitter, channel string) *snapshotPublisher {
	return &snapshotPublisher{
		emit:    emit,
		channel: channel,
		wake:    make(chan struct{}, 1),
	}
}

// offer is a coursechat.Observer; it never blocks.
func (p *snapshotPublisher) offer(s coursechat.Snapshot) {
	p.mu.Lock()
	if p.latest == nil || s.Version > p.latest.Version {
		p.latest = &s
	}
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *snapshotPublisher) take() *coursechat.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.latest
	p.latest = nil
	if s == nil || s.Version <= p.version {
		return nil
	}
	p.version = s.Version
	return s
}

func (p *snapshotPublisher) publish(s *coursechat.Snapshot) {
	if s == nil || p.emit == nil {
		return
	}
	p.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: p.channel,
		Event:   realtime.SSEEventConversationUpdated,
		Data:    s,
	})
}

// run publishes until done closes, then flushes the final snapshot and emits
// a closed event.
func (p *snapshotPublisher) run(done <-chan struct{}) {
	for {
		select {
		case <-p.wake:
			p.publish(p.take())
		case <-done:
			p.publish(p.take())
			if p.emit != nil {
				p.emit.Emit(context.Background(), realtime.SSEMessage{
					Channel: p.channel,
					Event:   realtime.SSEEventConversationClosed,
					Data:    map[string]any{"conversation_id": p.channel},
				})
			}
			return
		}
	}
}
