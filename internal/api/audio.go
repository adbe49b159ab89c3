package api

import (
	"net/http"
	"strconv"

	"speechvault/backend/internal/service"
	"speechvault/backend/pkg/config"
	"speechvault/backend/pkg/errors"
	"speechvault/backend/pkg/logger"
	"speechvault/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AudioController handles audio upload and retrieval endpoints
type AudioController struct {
	store  *service.RecordStore
	logger *logger.Logger
}

// NewAudioController creates a new audio controller
func NewAudioController(store *service.RecordStore, logger *logger.Logger) *AudioController {
	return &AudioController{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes registers the audio routes on an authenticated group
func (ac *AudioController) RegisterRoutes(protected *gin.RouterGroup) {
	audioGroup := protected.Group("/audio")
	{
		audioGroup.POST("/upload", ac.UploadAudio)
		audioGroup.GET("", ac.ListAudioFiles)
		audioGroup.GET("/:id/data", ac.GetAudioData)
	}
}

// UploadAudio accepts a multipart audio file, encrypts it and stores it
func (ac *AudioController) UploadAudio(c *gin.Context) {
	uid := userID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.NewBadRequestError("MISSING_FILE", "An audio file is required"))
		c.Abort()
		return
	}

	cfg := config.Get()
	if fileHeader.Size > cfg.Features.MaxUploadSize {
		c.Error(errors.NewBadRequestError("FILE_TOO_LARGE", "Audio file exceeds the upload size limit"))
		c.Abort()
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(errors.NewIOError("failed to open uploaded file").WithCause(err))
		c.Abort()
		return
	}
	defer file.Close()

	language := c.DefaultPostForm("language", "auto")

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	id, err := ac.store.SaveAudioFile(ctx, uid, fileHeader.Filename, file, language)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"audio_id": id,
		"filename": fileHeader.Filename,
		"language": language,
	})
}

// ListAudioFiles lists the caller's uploads (metadata only)
func (ac *AudioController) ListAudioFiles(c *gin.Context) {
	uid := userID(c)

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	files, err := ac.store.GetUserAudioFiles(ctx, uid, listLimit(c))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"audio_files": files})
}

// GetAudioData returns the decrypted base64 payload of one upload
func (ac *AudioController) GetAudioData(c *gin.Context) {
	uid := userID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewBadRequestError("INVALID_ID", "Audio id must be an integer"))
		c.Abort()
		return
	}

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	data, err := ac.store.GetAudioData(ctx, uid, id)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audio_id": id,
		"data":     data,
	})
}

// listLimit reads the optional limit query parameter
func listLimit(c *gin.Context) int {
	cfg := config.Get()
	limit := cfg.Features.ListDefaultLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}
