package sharedmedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	"partypics-app/internal/domain/sharedmedia"
	"partypics-app/internal/infra/imaging"
	"partypics-app/internal/infra/sanitize"
)

const (
	// CreatePartName is the multipart part carrying the upload metadata.
	CreatePartName = "sharedMediaCreateDto"
	ImagePartName  = "image"
)

// Manager is the part of sharedmedia.Manager the handlers use.
type Manager interface {
	Create(ctx context.Context, in sharedmedia.CreateInput) (*sharedmedia.SharedMedia, error)
	ListByTournament(ctx context.Context, tournamentID uint, publicOnly bool) ([]sharedmedia.Metadata, error)
	GetImage(ctx context.Context, id uint) (*sharedmedia.SharedMedia, error)
	GetPublicImage(ctx context.Context, id uint) (*sharedmedia.SharedMedia, error)
	SetState(ctx context.Context, id uint, state sharedmedia.MediaState) error
	Delete(ctx context.Context, id uint) error
}

type Handler struct {
	manager Manager
	log     zerolog.Logger
}

func NewHandler(manager Manager, log zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		log:     log.With().Str("component", "shared-media-api").Logger(),
	}
}

// ------------------------------
// POST /api/v1/shared-media
// ------------------------------
func (h *Handler) Create(c *gin.Context) {
	req, err := bindCreateRequest(c)
	if err != nil {
		bindingError(c, err)
		return
	}

	fileHeader, err := c.FormFile(ImagePartName)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}
	data, err := readImage(fileHeader)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid image upload"})
		return
	}

	item, err := h.manager.Create(c.Request.Context(), sharedmedia.CreateInput{
		Author:       req.Author,
		Title:        req.Title,
		TournamentID: req.TournamentID,
		Image:        data,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toMetadataDTO(item.Metadata()))
}

// bindCreateRequest reads the metadata from a JSON part (as value or file) and
// falls back to plain form fields. Text fields are cleaned whichever way they
// arrived, since file parts never pass the form sanitizer.
func bindCreateRequest(c *gin.Context) (CreateRequest, error) {
	var req CreateRequest

	raw, err := createPart(c)
	if err != nil {
		return req, err
	}
	if raw == nil {
		err = c.ShouldBindWith(&req, binding.FormMultipart)
	} else {
		err = binding.JSON.BindBody(raw, &req)
	}
	if err != nil {
		return req, err
	}
	req.Author = sanitize.Text(req.Author)
	req.Title = sanitize.Text(req.Title)
	return req, nil
}

func createPart(c *gin.Context) ([]byte, error) {
	if v, ok := c.GetPostForm(CreatePartName); ok {
		return []byte(v), nil
	}
	fh, err := c.FormFile(CreatePartName)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", CreatePartName, err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, 64<<10))
}

// readImage reads at most one byte past the size limit so oversize uploads
// are still rejected by validation.
func readImage(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, sharedmedia.MaxImageBytes+1))
}

// ------------------------------
// GET /api/v1/shared-media/tournament/:id
// ------------------------------
func (h *Handler) ListByTournament(c *gin.Context) {
	h.list(c, false)
}

// ------------------------------
// GET /api/v1/shared-media/tournament/public/:id
// ------------------------------
func (h *Handler) ListPublicByTournament(c *gin.Context) {
	h.list(c, true)
}

func (h *Handler) list(c *gin.Context, publicOnly bool) {
	tournamentID, ok := parseID(c)
	if !ok {
		return
	}
	items, err := h.manager.ListByTournament(c.Request.Context(), tournamentID, publicOnly)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMetadataDTOs(items))
}

// ------------------------------
// GET /api/v1/shared-media/image/:id
// ------------------------------
func (h *Handler) GetImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.manager.GetImage(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	writeImage(c, item)
}

// ------------------------------
// GET /api/v1/shared-media/image/public/:id
// ------------------------------
func (h *Handler) GetPublicImage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.manager.GetPublicImage(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	writeImage(c, item)
}

func writeImage(c *gin.Context, item *sharedmedia.SharedMedia) {
	contentType := item.ContentType
	if contentType == "" {
		contentType = imaging.MIMETypeJPEG
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%d.%s"`, item.ID, imaging.Extension(contentType)))
	c.Data(http.StatusOK, contentType, item.Image)
}

// ------------------------------
// PUT /api/v1/shared-media/:id
// ------------------------------
func (h *Handler) SetState(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	if err := h.manager.SetState(c.Request.Context(), id, req.State); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// ------------------------------
// DELETE /api/v1/shared-media/:id
// ------------------------------
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.manager.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}
