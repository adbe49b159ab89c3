package api

import (
	"net/http"
	"strconv"

	"speechvault/backend/internal/service"
	"speechvault/backend/pkg/errors"
	"speechvault/backend/pkg/logger"
	"speechvault/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// RecordsController handles the transcription, translation,
// speech-to-speech, streaming and text-to-speech endpoints
type RecordsController struct {
	store  *service.RecordStore
	logger *logger.Logger
}

// NewRecordsController creates a new records controller
func NewRecordsController(store *service.RecordStore, logger *logger.Logger) *RecordsController {
	return &RecordsController{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes registers all record routes on an authenticated group
func (rc *RecordsController) RegisterRoutes(protected *gin.RouterGroup) {
	transcriptions := protected.Group("/transcriptions")
	{
		transcriptions.POST("", rc.CreateTranscription)
		transcriptions.GET("", rc.ListTranscriptions)
	}

	translations := protected.Group("/translations")
	{
		translations.POST("", rc.CreateTranslation)
		translations.GET("", rc.ListTranslations)
	}

	s2s := protected.Group("/speech-to-speech")
	{
		s2s.POST("", rc.CreateSpeechToSpeech)
		s2s.GET("", rc.ListSpeechToSpeech)
	}

	streams := protected.Group("/streams")
	{
		streams.POST("", rc.StartStream)
		streams.PUT("/:id", rc.FinalizeStream)
		streams.GET("", rc.ListStreams)
	}

	tts := protected.Group("/text-to-speech")
	{
		tts.POST("", rc.CreateTextToSpeech)
		tts.GET("", rc.ListTextToSpeech)
	}
}

type createTranscriptionRequest struct {
	AudioID    int64   `json:"audio_id"`
	Text       string  `json:"text" binding:"required"`
	Language   string  `json:"language" binding:"required"`
	Confidence float64 `json:"confidence" binding:"min=0,max=1"`
	Method     string  `json:"method" binding:"omitempty,oneof=batch streaming"`
	AudioURL   string  `json:"audio_url"`
}

// CreateTranscription stores a transcription result
func (rc *RecordsController) CreateTranscription(c *gin.Context) {
	var req createTranscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		c.Abort()
		return
	}

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	id, err := rc.store.SaveTranscription(ctx, req.AudioID, userID(c), req.Text, req.Language, req.Confidence, req.Method, req.AudioURL)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transcription_id": id})
}

// ListTranscriptions lists the caller's transcriptions, decrypted
func (rc *RecordsController) ListTranscriptions(c *gin.Context) {
	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	views, err := rc.store.GetUserTranscriptions(ctx, userID(c), listLimit(c))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcriptions": views})
}

type createTranslationRequest struct {
	TranscriptionID int64  `json:"transcription_id"`
	SourceLanguage  string `json:"source_language" binding:"required"`
	TargetLanguage  string `json:"target_language" binding:"required"`
	OriginalText    string `json:"original_text" binding:"required"`
	TranslatedText  string `json:"translated_text" binding:"required"`
	AudioURL        string `json:"audio_url"`
}

// CreateTranslation stores a translation result
func (rc *RecordsController) CreateTranslation(c *gin.Context) {
	var req createTranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		c.Abort()
		return
	}

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	id, err := rc.store.SaveTranslation(ctx, req.TranscriptionID, userID(c), req.SourceLanguage, req.TargetLanguage, req.OriginalText, req.TranslatedText, req.AudioURL)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, gin.H{"translation_id": id})
}

// ListTranslations lists the caller's translations, decrypted
func (rc *RecordsController) ListTranslations(c *gin.Context) {
	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	views, err := rc.store.GetUserTranslations(ctx, userID(c), listLimit(c))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, gin.H{"translations": views})
}

type createSpeechToSpeechRequest struct {
	TranslationID       int64  `json:"translation_id"`
	SourceLanguage      string `json:"source_language" binding:"required"`
	TargetLanguage      string `json:"target_language" binding:"required"`
	OriginalAudioURL    string `json:"original_audio_url"`
	TranscribedText     string `json:"transcribed_text" binding:"required"`
	TranslatedText      string `json:"translated_text" binding:"required"`
	SynthesizedAudioURL string `json:"synthesized_audio_url"`
}

// CreateSpeechToSpeech stores a combined speech-to-speech session
func (rc *RecordsController) CreateSpeechToSpeech(c *gin.Context) {
	var req createSpeechToSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		c.Abort()
		return
	}

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	id, err := rc.store.SaveSpeechToSpeech(ctx, req.TranslationID, userID(c), req.SourceLanguage, req.TargetLanguage, req.OriginalAudioURL, req.TranscribedText, req.TranslatedText, req.SynthesizedAudioURL)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, gin.H{"s2s_id": id})
}

// ListSpeechToSpeech lists the caller's speech-to-speech sessions
func (rc *RecordsController) ListSpeechToSpeech(c *gin.Context) {
	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	views, err := rc.store.GetUserSpeechToSpeech(ctx, userID(c), listLimit(c))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, gin.H{"speech_to_speech": views})
}

type startStreamRequest struct {
	SourceLanguage string `json:"source_language" binding:"required"`
}

// StartStream opens a streaming transcription session
func (rc *RecordsController) StartStream(c *gin.Context) {
	var req startStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		c.Abort()
		return
	}

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	session, err := rc.store.StartStreamingSession(ctx, userID(c), req.SourceLanguage)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"stream_id":  session.ID,
		"session_id": session.SessionID,
		"start_time": session.StartTime,
	})
}

type finalizeStreamRequest struct {
	FinalText         string  `json:"final_text" binding:"required"`
	AverageConfidence float64 `json:"confidence_avg" binding:"min=0,max=1"`
	AudioURL          string  `json:"audio_url"`
}

// FinalizeStream writes the final results of a streaming session
func (rc *RecordsController) FinalizeStream(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewBadRequestError("INVALID_ID", "Stream id must be an integer"))
		c.Abort()
		return
	}

	var req finalizeStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		c.Abort()
		return
	}

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	if err := rc.store.UpdateStreamingSession(ctx, userID(c), id, req.FinalText, req.AverageConfidence, req.AudioURL); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream_id": id})
}

// ListStreams lists the caller's streaming sessions
func (rc *RecordsController) ListStreams(c *gin.Context) {
	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	views, err := rc.store.GetUserStreamingSessions(ctx, userID(c), listLimit(c))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, gin.H{"streams": views})
}

type createTextToSpeechRequest struct {
	OriginalText string `json:"original_text" binding:"required"`
	Language     string `json:"language" binding:"required"`
	AudioURL     string `json:"audio_url"`
	VoiceType    string `json:"voice_type"`
}

// CreateTextToSpeech stores a synthesis request
func (rc *RecordsController) CreateTextToSpeech(c *gin.Context) {
	var req createTextToSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		c.Abort()
		return
	}

	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	id, err := rc.store.SaveTextToSpeech(ctx, userID(c), req.OriginalText, req.Language, req.AudioURL, req.VoiceType)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, gin.H{"tts_id": id})
}

// ListTextToSpeech lists the caller's synthesis requests
func (rc *RecordsController) ListTextToSpeech(c *gin.Context) {
	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	views, err := rc.store.GetUserTextToSpeech(ctx, userID(c), listLimit(c))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, gin.H{"text_to_speech": views})
}
