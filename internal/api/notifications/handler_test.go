package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partypics-app/internal/domain/notification"
	"partypics-app/internal/infra/relay"
)

// sseRecorder is safe to read while a stream handler is still writing.
type sseRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{ResponseRecorder: httptest.NewRecorder()}
}

func (r *sseRecorder) Write(b []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(b)
}

func (r *sseRecorder) WriteString(s string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.WriteString(s)
}

func (r *sseRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.WriteHeader(code)
}

func (r *sseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.Flush()
}

func (r *sseRecorder) CloseNotify() <-chan bool {
	return make(chan bool)
}

func (r *sseRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, string, notification.Notification) error {
	return errors.New("redis: connection refused")
}

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1/notifications")
	g.POST("/notify", h.Notify)
	g.GET("/stream", h.Stream)
	g.GET("/stream/organizer", func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Set("username", u)
		}
		c.Next()
	}, h.StreamOrganizer)
	return r
}

// openStream serves path in the background and returns once the handler has
// subscribed to channel.
func openStream(t *testing.T, r http.Handler, hub *relay.Hub, channel, path string, header http.Header) (*sseRecorder, func()) {
	t.Helper()
	before := hub.Subscribers(channel)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := newSSERecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool {
		return hub.Subscribers(channel) == before+1
	}, time.Second, 5*time.Millisecond)

	return rec, func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("stream did not stop")
		}
	}
}

func TestNotifyEscapesAndBroadcasts(t *testing.T) {
	hub := relay.NewHub(4, zerolog.Nop())
	sub := hub.Subscribe(notification.BroadcastChannel, nil)
	defer sub.Close()
	r := setupRouter(NewHandler(hub, nil, zerolog.Nop()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/notify",
		strings.NewReader(`{"message":"<script>x</script>","tournamentId":7}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var body notification.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "&lt;script&gt;x&lt;/script&gt;", body.Message)

	select {
	case n := <-sub.Notifications():
		assert.Equal(t, "&lt;script&gt;x&lt;/script&gt;", n.Message)
		assert.Equal(t, uint(7), n.TournamentID)
	case <-time.After(time.Second):
		t.Fatal("notification not broadcast")
	}
}

func TestNotifyRejectsBadInput(t *testing.T) {
	hub := relay.NewHub(1, zerolog.Nop())
	r := setupRouter(NewHandler(hub, nil, zerolog.Nop()))

	for _, body := range []string{`{"tournamentId":7}`, `{"message":"hi"}`, `not json`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/notify", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestNotifyRelayFailure(t *testing.T) {
	hub := relay.NewHub(1, zerolog.Nop())
	r := setupRouter(NewHandler(hub, failingPublisher{}, zerolog.Nop()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/notify", strings.NewReader(`{"message":"hi","tournamentId":1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")
}

func TestStreamFiltersByTournament(t *testing.T) {
	hub := relay.NewHub(4, zerolog.Nop())
	r := setupRouter(NewHandler(hub, nil, zerolog.Nop()))

	rec, stop := openStream(t, r, hub, notification.BroadcastChannel, "/api/v1/notifications/stream?tournamentId=7", nil)

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, notification.BroadcastChannel, notification.New("other cup", 8)))
	require.NoError(t, hub.Publish(ctx, notification.BroadcastChannel, notification.New("Finals by Max is now approved.", 7)))

	require.Eventually(t, func() bool {
		return strings.Contains(rec.body(), "Finals by Max")
	}, time.Second, 5*time.Millisecond)
	stop()

	body := rec.body()
	assert.Contains(t, body, "event:notification")
	assert.Contains(t, body, `"tournamentId":7`)
	assert.NotContains(t, body, "other cup")
	// gin appends a charset to the event stream content type
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream"), rec.Header().Get("Content-Type"))
	assert.Equal(t, 0, hub.Subscribers(notification.BroadcastChannel))
}

func TestStreamKeepAlive(t *testing.T) {
	hub := relay.NewHub(4, zerolog.Nop())
	h := NewHandler(hub, nil, zerolog.Nop())
	h.keepAlive = 10 * time.Millisecond
	r := setupRouter(h)

	rec, stop := openStream(t, r, hub, notification.BroadcastChannel, "/api/v1/notifications/stream", nil)
	require.Eventually(t, func() bool {
		return strings.Contains(rec.body(), "event:ping")
	}, time.Second, 5*time.Millisecond)
	stop()
}

func TestStreamInvalidTournament(t *testing.T) {
	hub := relay.NewHub(1, zerolog.Nop())
	r := setupRouter(NewHandler(hub, nil, zerolog.Nop()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream?tournamentId=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamOrganizer(t *testing.T) {
	hub := relay.NewHub(4, zerolog.Nop())
	r := setupRouter(NewHandler(hub, nil, zerolog.Nop()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream/organizer", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	channel := notification.OrganizerChannel("alice")
	stream, stop := openStream(t, r, hub, channel, "/api/v1/notifications/stream/organizer", http.Header{"X-Test-User": {"alice"}})

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, notification.OrganizerChannel("bob"), notification.New("for bob", 2)))
	require.NoError(t, hub.Publish(ctx, channel, notification.New("Beer Cup: Max uploaded a new image.", 1)))

	require.Eventually(t, func() bool {
		return strings.Contains(stream.body(), "uploaded a new image")
	}, time.Second, 5*time.Millisecond)
	stop()
	assert.NotContains(t, stream.body(), "for bob")
}

func TestStreamEndsWhenHubCloses(t *testing.T) {
	hub := relay.NewHub(1, zerolog.Nop())
	r := setupRouter(NewHandler(hub, nil, zerolog.Nop()))

	_, stop := openStream(t, r, hub, notification.BroadcastChannel, "/api/v1/notifications/stream", nil)
	hub.Close()
	stop()
}
