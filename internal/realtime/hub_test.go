package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/learny-backend/internal/pkg/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndClose(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	channel := "conv-1"

	clientA := hub.NewSSEClient()
	hub.AddChannel(clientA, channel)

	first := SSEMessage{Channel: channel, Event: SSEEventConversationUpdated, Data: map[string]any{"version": 1}}
	second := SSEMessage{Channel: channel, Event: SSEEventConversationClosed, Data: map[string]any{"version": 2}}
	hub.Broadcast(first)
	hub.Broadcast(second)

	gotFirst := recvMessage(t, clientA.Outbound, time.Second)
	gotSecond := recvMessage(t, clientA.Outbound, time.Second)
	if gotFirst.Event != SSEEventConversationUpdated {
		t.Fatalf("first event: want=%s got=%s", SSEEventConversationUpdated, gotFirst.Event)
	}
	if gotSecond.Event != SSEEventConversationClosed {
		t.Fatalf("second event: want=%s got=%s", SSEEventConversationClosed, gotSecond.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("subscribers after close: want=0 got=%d", n)
	}
	if _, ok := hub.Client(clientA.ID); ok {
		t.Fatalf("closed client still registered")
	}

	// reconnect on the same channel
	clientB := hub.NewSSEClient()
	hub.AddChannel(clientB, channel)
	hub.Broadcast(first)
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventConversationUpdated {
		t.Fatalf("reconnect event: got=%s", got.Event)
	}
}

func TestSSEHubChannelIsolation(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	a := hub.NewSSEClient()
	b := hub.NewSSEClient()
	hub.AddChannel(a, "one")
	hub.AddChannel(b, "two")
	hub.AddChannel(b, "  ")

	hub.Broadcast(SSEMessage{Channel: "one", Event: SSEEventCourseSaved})
	recvMessage(t, a.Outbound, time.Second)
	select {
	case msg := <-b.Outbound:
		t.Fatalf("client b got message for other channel: %+v", msg)
	default:
	}

	hub.RemoveChannel(a, "one")
	hub.Broadcast(SSEMessage{Channel: "one", Event: SSEEventCourseSaved})
	select {
	case msg := <-a.Outbound:
		t.Fatalf("unsubscribed client got message: %+v", msg)
	default:
	}
	if len(b.Channels) != 1 {
		t.Fatalf("blank channel should be ignored, got %v", b.Channels)
	}
}

func TestSSEHubDropsWhenBufferFull(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	c := hub.NewSSEClient()
	hub.AddChannel(c, "x")
	for i := 0; i < defaultOutboundBuffer+5; i++ {
		hub.Broadcast(SSEMessage{Channel: "x", Event: SSEEventConversationUpdated, Data: i})
	}
	if got := len(c.Outbound); got != defaultOutboundBuffer {
		t.Fatalf("buffered: want=%d got=%d", defaultOutboundBuffer, got)
	}
}

func TestSSEHubServeHTTP(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	client := hub.NewSSEClient()
	hub.AddChannel(client, "conv")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r, client)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	readFrame := func() string {
		var b strings.Builder
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if line == "\n" {
				return b.String()
			}
			b.WriteString(line)
		}
	}

	ready := readFrame()
	if !strings.Contains(ready, "event: ready") || !strings.Contains(ready, client.ID.String()) {
		t.Fatalf("unexpected ready frame: %q", ready)
	}

	hub.Broadcast(SSEMessage{Channel: "conv", Event: SSEEventConversationUpdated, Data: map[string]any{"version": 7}})
	frame := readFrame()
	if !strings.Contains(frame, `"event":"ConversationUpdated"`) || !strings.Contains(frame, `"version":7`) {
		t.Fatalf("unexpected frame: %q", frame)
	}

	hub.CloseClient(client)
}

func TestSSEHubCloseAll(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	a := hub.NewSSEClient()
	b := hub.NewSSEClient()
	hub.AddChannel(a, CoursesChannel)
	hub.AddChannel(b, CoursesChannel)

	hub.CloseAll()

	for _, c := range []*SSEClient{a, b} {
		if _, ok := <-c.Outbound; ok {
			t.Fatalf("client %s still open", c.ID)
		}
	}
	if n := hub.Subscribers(CoursesChannel); n != 0 {
		t.Fatalf("subscribers after CloseAll: want=0 got=%d", n)
	}
}
