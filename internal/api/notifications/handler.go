package notifications

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"partypics-app/internal/domain/notification"
	"partypics-app/internal/infra/relay"
)

const defaultKeepAlive = 25 * time.Second

type NotifyRequest struct {
	Message      string `json:"message" binding:"required"`
	TournamentID uint   `json:"tournamentId" binding:"required"`
}

type Handler struct {
	hub       *relay.Hub
	publisher relay.Publisher
	keepAlive time.Duration
	log       zerolog.Logger
}

// NewHandler serves streams from hub and sends through publisher, which is
// the hub itself on single instance deployments.
func NewHandler(hub *relay.Hub, publisher relay.Publisher, log zerolog.Logger) *Handler {
	if publisher == nil {
		publisher = hub
	}
	return &Handler{
		hub:       hub,
		publisher: publisher,
		keepAlive: defaultKeepAlive,
		log:       log.With().Str("component", "notifications-api").Logger(),
	}
}

// ------------------------------
// POST /api/v1/notifications/notify
// ------------------------------
func (h *Handler) Notify(c *gin.Context) {
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "message and tournamentId are required"})
		return
	}

	n, err := relay.Notify(c.Request.Context(), h.publisher, req.Message, req.TournamentID)
	if err != nil {
		h.log.Error().Err(err).Uint("tournament_id", req.TournamentID).Msg("notify failed")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Notification relay unavailable"})
		return
	}
	c.JSON(http.StatusAccepted, n)
}

// ------------------------------
// GET /api/v1/notifications/stream?tournamentId=7
// ------------------------------
func (h *Handler) Stream(c *gin.Context) {
	var tournamentID *uint
	if raw := c.Query("tournamentId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid tournamentId"})
			return
		}
		tid := uint(id)
		tournamentID = &tid
	}
	h.stream(c, notification.BroadcastChannel, tournamentID)
}

// ------------------------------
// GET /api/v1/notifications/stream/organizer
// ------------------------------
func (h *Handler) StreamOrganizer(c *gin.Context) {
	channel := notification.OrganizerChannel(c.GetString("username"))
	if channel == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	h.stream(c, channel, nil)
}

func (h *Handler) stream(c *gin.Context, channel string, tournamentID *uint) {
	sub := h.hub.Subscribe(channel, tournamentID)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	done := c.Request.Context().Done()

	h.log.Debug().Str("channel", channel).Msg("stream opened")
	c.Stream(func(w io.Writer) bool {
		select {
		case n, ok := <-sub.Notifications():
			if !ok {
				return false
			}
			c.SSEvent("notification", n)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now().Unix()})
			return true
		case <-done:
			return false
		}
	})
	h.log.Debug().Str("channel", channel).Msg("stream closed")
}
