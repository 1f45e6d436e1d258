package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"comandapos/server/internal/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	base, cap := 300*time.Millisecond, 8*time.Second
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 300 * time.Millisecond},
		{1, 600 * time.Millisecond},
		{3, 2400 * time.Millisecond},
		{5, 8 * time.Second},
		{60, 8 * time.Second},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Backoff(base, cap, tc.attempt), "attempt %d", tc.attempt)
	}
}

type fakeHub struct {
	mu     sync.Mutex
	events []models.RealtimeEvent
}

func (h *fakeHub) BroadcastEvent(ev models.RealtimeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *fakeHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestFanoutLocalOnly(t *testing.T) {
	hub := &fakeHub{}
	f := NewFanout(hub, nil, "comandas:realtime", nil)

	f.Notify(context.Background(), models.EventComandaChanged, map[string]int{"id": 1})
	require.Equal(t, 1, hub.count())
	assert.Equal(t, f.Origin(), hub.events[0].Origin)

	// свое событие, вернувшееся через канал, не дублируется
	f.Relay(hub.events[0])
	assert.Equal(t, 1, hub.count())
	f.Relay(models.RealtimeEvent{Type: models.EventMenuChanged, Origin: "other"})
	assert.Equal(t, 2, hub.count())

	_, err := f.ClusterClients(context.Background())
	assert.Error(t, err)
	assert.NoError(t, f.Run(context.Background()))
	assert.NoError(t, f.Close())
}

// wsServer отдает welcome и потом то, что тест положит в send
type wsServer struct {
	srv   *httptest.Server
	mu    sync.Mutex
	conns []*websocket.Conn
}

func newWSServer(t *testing.T) *wsServer {
	s := &wsServer{}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		_ = conn.WriteJSON(models.RealtimeEvent{Type: models.EventConnected})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) last() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[len(s.conns)-1]
}

func (s *wsServer) connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func TestListenerDebouncesAndReconnects(t *testing.T) {
	srv := newWSServer(t)
	var pulls atomic.Int32
	l := NewListener(ListenerConfig{
		URL:         srv.url(),
		Debounce:    50 * time.Millisecond,
		BackoffBase: 10 * time.Millisecond,
		BackoffCap:  50 * time.Millisecond,
	}, func(ctx context.Context) error {
		pulls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()

	// pull на подключение
	require.Eventually(t, func() bool { return pulls.Load() == 1 && l.Connected() }, 2*time.Second, 5*time.Millisecond)

	conn := srv.last()
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.WriteJSON(models.RealtimeEvent{Type: models.EventOrderSubmitted}))
	}
	require.Eventually(t, func() bool { return pulls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(2), pulls.Load(), "пачка событий склеена в один pull")

	// обрыв -> переподключение -> снова pull
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return srv.connections() == 2 && pulls.Load() == 3 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener не остановился")
	}
	assert.False(t, l.Connected())
}
