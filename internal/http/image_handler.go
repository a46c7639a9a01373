package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-service/internal/domain"
)

const profilePicField = "profilePic"

// ProfileImages es lo que ImageHandler necesita del coordinador de fotos.
type ProfileImages interface {
	Attach(ctx context.Context, ownerID string, upload domain.ImageUpload) (domain.ProfileImage, error)
	Detach(ctx context.Context, ownerID string) error
	Retrieve(ctx context.Context, ownerID string) (domain.ProfileImage, error)
}

// ImageHandler expone la foto de perfil del usuario autenticado.
type ImageHandler struct {
	logger   *zap.Logger
	images   ProfileImages
	maxBytes int64
}

func NewImageHandler(logger *zap.Logger, images ProfileImages, maxBytes int64) *ImageHandler {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &ImageHandler{logger: logger, images: images, maxBytes: maxBytes}
}

// Upload maneja POST /user/v1/user/self/pic (multipart, campo profilePic).
func (h *ImageHandler) Upload(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		unauthorized(c, "authorization header missing")
		return
	}

	// Margen para los headers del multipart.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	fh, err := c.FormFile(profilePicField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File is not uploaded. Please upload one!"})
			return
		}
		h.logger.Warn("invalid profile picture upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart request"})
		return
	}
	if fh.Size > h.maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is too large"})
		return
	}

	file, err := fh.Open()
	if err != nil {
		h.logger.Warn("open uploaded file failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart request"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Warn("read uploaded file failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart request"})
		return
	}

	img, err := h.images.Attach(c.Request.Context(), user.ID, domain.ImageUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		respondError(c, h.logger, "upload profile picture", err, nil)
		return
	}

	c.JSON(http.StatusCreated, img)
}

// Delete maneja DELETE /user/v1/user/self/pic.
func (h *ImageHandler) Delete(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		unauthorized(c, "authorization header missing")
		return
	}
	if err := h.images.Detach(c.Request.Context(), user.ID); err != nil {
		respondError(c, h.logger, "delete profile picture", err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get maneja GET /user/v1/user/self/pic.
func (h *ImageHandler) Get(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		unauthorized(c, "authorization header missing")
		return
	}
	img, err := h.images.Retrieve(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, "get profile picture", err, nil)
		return
	}
	c.JSON(http.StatusOK, img)
}
