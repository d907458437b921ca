package routes

import (
	"net/http"

	notificationsapi "partypics-app/internal/api/notifications"
	sharedmediaapi "partypics-app/internal/api/sharedmedia"
	"partypics-app/internal/app/http/middleware"
	"partypics-app/internal/domain/sharedmedia"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// uploads carry the image plus a small metadata part
const maxUploadBody = sharedmedia.MaxImageBytes + 1<<20

type Dependencies struct {
	SharedMedia   *sharedmediaapi.Handler
	Notifications *notificationsapi.Handler

	JWTSecret      string
	ModeratorRoles []string

	// Health reports readiness of backing services. Nil means always ready.
	Health func(c *gin.Context) error
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(c); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	moderator := []gin.HandlerFunc{
		middleware.AuthMiddleware(deps.JWTSecret),
		middleware.RequireRole(deps.ModeratorRoles...),
	}

	media := r.Group("/api/v1/shared-media")
	{
		h := deps.SharedMedia

		// Public
		media.POST("",
			middleware.MaxBodySize(maxUploadBody),
			middleware.SanitizeMultipartInput(maxUploadBody),
			h.Create,
		)
		media.GET("/tournament/public/:id", h.ListPublicByTournament)
		media.GET("/image/public/:id", h.GetPublicImage)

		// Moderators
		mod := media.Group("", moderator...)
		mod.GET("/tournament/:id", h.ListByTournament)
		mod.GET("/image/:id", h.GetImage)
		mod.PUT("/:id", h.SetState)
		mod.DELETE("/:id", h.Delete)
	}

	notifications := r.Group("/api/v1/notifications")
	{
		h := deps.Notifications

		notifications.POST("/notify", middleware.MaxBodySize(64<<10), h.Notify)
		notifications.GET("/stream", h.Stream)
		notifications.GET("/stream/organizer", middleware.AuthMiddleware(deps.JWTSecret), h.StreamOrganizer)
	}
}
