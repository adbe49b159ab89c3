package service

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"speechvault/backend/internal/models"
	"speechvault/backend/internal/repository"
	"speechvault/backend/pkg/crypto"
	"speechvault/backend/pkg/errors"
	"speechvault/backend/pkg/logger"
	"speechvault/backend/pkg/metrics"

	"github.com/google/uuid"
)

// RecordStore is the encrypted per-user record store. Sensitive text
// fields are encrypted before they reach the repository and decrypted
// only on the explicit read paths; every successful save appends one
// activity log entry in the same transaction.
type RecordStore struct {
	repo   repository.Records
	usage  repository.Usage
	cipher *crypto.Cipher
	seqs   *Sequences
	log    *logger.Logger
}

// NewRecordStore creates a record store over the given repository
func NewRecordStore(repo repository.Records, usage repository.Usage, cipher *crypto.Cipher, seqs *Sequences, log *logger.Logger) *RecordStore {
	return &RecordStore{
		repo:   repo,
		usage:  usage,
		cipher: cipher,
		seqs:   seqs,
		log:    log,
	}
}

// SaveAudioFile reads the full file content, encrypts its base64 payload
// and stores it with metadata. Returns the new record's id.
func (s *RecordStore) SaveAudioFile(ctx context.Context, userID, filename string, content io.Reader, language string) (int64, error) {
	collection := models.AudioFile{}.TableName()
	start := time.Now()

	if language == "" {
		language = "auto"
	}

	raw, err := io.ReadAll(content)
	if err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, errors.NewIOError("failed to read audio file").WithCause(err)
	}

	encrypted, err := s.cipher.Encrypt(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, err
	}

	id := s.seqs.Next(collection)
	file := &models.AudioFile{
		ID:              id,
		UserID:          userID,
		Filename:        filename,
		Language:        language,
		UploadTime:      models.NowMillis(),
		DurationSeconds: 0, // measured asynchronously, if ever
		StoragePath:     fmt.Sprintf("users/%s/audio/%d", userID, id),
		Data:            encrypted,
	}

	entry := s.newLogEntry(userID, models.ActionUpload, id, fmt.Sprintf("Uploaded audio file: %s", filename))

	if err := s.repo.SaveAudioFile(ctx, file, entry); err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, mapStoreErr(err)
	}

	metrics.ObserveStoreOp(collection, "save", start, nil)
	metrics.ActivityLogged.WithLabelValues(string(models.ActionUpload)).Inc()
	s.log.LogStoreOp("save", collection, userID, id, time.Since(start))
	return id, nil
}

// SaveTranscription stores speech-to-text output for an audio file
func (s *RecordStore) SaveTranscription(ctx context.Context, audioID int64, userID, text, language string, confidence float64, method, audioURL string) (int64, error) {
	collection := models.Transcription{}.TableName()
	start := time.Now()

	if method == "" {
		method = models.MethodBatch
	}

	encrypted, err := s.cipher.Encrypt(text)
	if err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, err
	}

	id := s.seqs.Next(collection)
	record := &models.Transcription{
		ID:         id,
		AudioID:    audioID,
		UserID:     userID,
		Text:       encrypted,
		Confidence: confidence,
		Language:   language,
		Method:     method,
		CreatedAt:  models.NowMillis(),
		AudioURL:   audioURL,
	}

	entry := s.newLogEntry(userID, models.ActionTranscribe, id, fmt.Sprintf("Transcribed audio %d", audioID))

	if err := s.repo.SaveTranscription(ctx, record, entry); err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, mapStoreErr(err)
	}

	s.addUsage(ctx, func() error {
		return s.usage.AddTranscribedSeconds(ctx, userID, s.audioDuration(ctx, audioID))
	})

	metrics.ObserveStoreOp(collection, "save", start, nil)
	metrics.ActivityLogged.WithLabelValues(string(models.ActionTranscribe)).Inc()
	s.log.LogStoreOp("save", collection, userID, id, time.Since(start))
	return id, nil
}

// SaveTranslation stores a translation. The two text fields are encrypted
// independently.
func (s *RecordStore) SaveTranslation(ctx context.Context, transcriptionID int64, userID, sourceLanguage, targetLanguage, originalText, translatedText, audioURL string) (int64, error) {
	collection := models.Translation{}.TableName()
	start := time.Now()

	encryptedOriginal, err := s.cipher.Encrypt(originalText)
	if err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, err
	}
	encryptedTranslated, err := s.cipher.Encrypt(translatedText)
	if err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, err
	}

	id := s.seqs.Next(collection)
	record := &models.Translation{
		ID:              id,
		TranscriptionID: transcriptionID,
		UserID:          userID,
		SourceLanguage:  sourceLanguage,
		TargetLanguage:  targetLanguage,
		OriginalText:    encryptedOriginal,
		TranslatedText:  encryptedTranslated,
		CreatedAt:       models.NowMillis(),
		AudioURL:        audioURL,
	}

	entry := s.newLogEntry(userID, models.ActionTranslate, id, "Translated text")

	if err := s.repo.SaveTranslation(ctx, record, entry); err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, mapStoreErr(err)
	}

	s.addUsage(ctx, func() error {
		return s.usage.AddTranslatedCharacters(ctx, userID, int64(len([]rune(originalText))))
	})

	metrics.ObserveStoreOp(collection, "save", start, nil)
	metrics.ActivityLogged.WithLabelValues(string(models.ActionTranslate)).Inc()
	s.log.LogStoreOp("save", collection, userID, id, time.Since(start))
	return id, nil
}

// SaveSpeechToSpeech stores one combined transcribe-translate-synthesize
// session
func (s *RecordStore) SaveSpeechToSpeech(ctx context.Context, translationID int64, userID, sourceLanguage, targetLanguage, originalAudioURL, transcribedText, translatedText, synthesizedAudioURL string) (int64, error) {
	collection := models.SpeechToSpeech{}.TableName()
	start := time.Now()

	encryptedTranscribed, err := s.cipher.Encrypt(transcribedText)
	if err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, err
	}
	encryptedTranslated, err := s.cipher.Encrypt(translatedText)
	if err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, err
	}

	id := s.seqs.Next(collection)
	record := &models.SpeechToSpeech{
		ID:                  id,
		TranslationID:       translationID,
		UserID:              userID,
		SourceLanguage:      sourceLanguage,
		TargetLanguage:      targetLanguage,
		OriginalAudioURL:    originalAudioURL,
		TranscribedText:     encryptedTranscribed,
		TranslatedText:      encryptedTranslated,
		SynthesizedAudioURL: synthesizedAudioURL,
		CreatedAt:           models.NowMillis(),
	}

	entry := s.newLogEntry(userID, models.ActionS2S, id, "Completed speech-to-speech translation")

	if err := s.repo.SaveSpeechToSpeech(ctx, record, entry); err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, mapStoreErr(err)
	}

	metrics.ObserveStoreOp(collection, "save", start, nil)
	metrics.ActivityLogged.WithLabelValues(string(models.ActionS2S)).Inc()
	s.log.LogStoreOp("save", collection, userID, id, time.Since(start))
	return id, nil
}

// StartStreamingSession opens a live transcription session with a fresh
// random session identifier. The initial empty text is not encrypted.
func (s *RecordStore) StartStreamingSession(ctx context.Context, userID, sourceLanguage string) (*models.StreamingSession, error) {
	collection := models.StreamingSession{}.TableName()
	start := time.Now()

	id := s.seqs.Next(collection)
	session := &models.StreamingSession{
		ID:                id,
		UserID:            userID,
		SessionID:         uuid.New().String(),
		StartTime:         models.NowMillis(),
		EndTime:           0,
		FinalText:         "",
		SourceLanguage:    sourceLanguage,
		AverageConfidence: 0,
	}

	entry := s.newLogEntry(userID, models.ActionStreaming, id, "Started streaming session")

	if err := s.repo.SaveStreamingSession(ctx, session, entry); err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return nil, mapStoreErr(err)
	}

	metrics.ObserveStoreOp(collection, "save", start, nil)
	metrics.ActivityLogged.WithLabelValues(string(models.ActionStreaming)).Inc()
	metrics.StreamingSessionsActive.Inc()
	s.log.LogStoreOp("save", collection, userID, id, time.Since(start))
	return session, nil
}

// UpdateStreamingSession finalizes a session: encrypted final text, the
// given confidence, the audio URL and EndTime set to now. Last-write-wins
// and idempotent; appends no activity log entry. A missing id, or one
// owned by another user, is a NotFound error.
func (s *RecordStore) UpdateStreamingSession(ctx context.Context, userID string, id int64, finalText string, averageConfidence float64, audioURL string) error {
	collection := models.StreamingSession{}.TableName()
	start := time.Now()

	session, err := s.repo.GetStreamingSession(ctx, id)
	if err != nil {
		err = mapStoreErr(err)
		metrics.ObserveStoreOp(collection, "update", start, err)
		return err
	}
	if session.UserID != userID {
		err := errors.NewNotFoundError(errors.CodeNotFound, "record not found")
		metrics.ObserveStoreOp(collection, "update", start, err)
		return err
	}
	wasOpen := !session.Finalized()

	encrypted, err := s.cipher.Encrypt(finalText)
	if err != nil {
		metrics.ObserveStoreOp(collection, "update", start, err)
		return err
	}

	endTime := models.NowMillis()
	err = s.repo.FinalizeStreamingSession(ctx, id, userID, encrypted, averageConfidence, audioURL, endTime)
	if err != nil {
		metrics.ObserveStoreOp(collection, "update", start, err)
		return mapStoreErr(err)
	}

	// Repeated finalizes keep last-write-wins for the session fields, but
	// the gauge and the realtime total move only on the first transition
	if wasOpen {
		metrics.StreamingSessionsActive.Dec()
		s.addUsage(ctx, func() error {
			return s.usage.AddRealtimeSeconds(ctx, userID, (endTime-session.StartTime)/1000)
		})
	}

	metrics.ObserveStoreOp(collection, "update", start, nil)
	s.log.LogStoreOp("update", collection, userID, id, time.Since(start))
	return nil
}

// SaveTextToSpeech stores one synthesis request
func (s *RecordStore) SaveTextToSpeech(ctx context.Context, userID, originalText, language, audioURL, voiceType string) (int64, error) {
	collection := models.TextToSpeech{}.TableName()
	start := time.Now()

	if voiceType == "" {
		voiceType = models.DefaultVoiceType
	}

	encrypted, err := s.cipher.Encrypt(originalText)
	if err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, err
	}

	id := s.seqs.Next(collection)
	record := &models.TextToSpeech{
		ID:           id,
		UserID:       userID,
		OriginalText: encrypted,
		Language:     language,
		VoiceType:    voiceType,
		AudioURL:     audioURL,
		CreatedAt:    models.NowMillis(),
	}

	entry := s.newLogEntry(userID, models.ActionTTS, id, "Generated speech for text")

	if err := s.repo.SaveTextToSpeech(ctx, record, entry); err != nil {
		metrics.ObserveStoreOp(collection, "save", start, err)
		return 0, mapStoreErr(err)
	}

	s.addUsage(ctx, func() error {
		return s.usage.AddTTSRequest(ctx, userID)
	})

	metrics.ObserveStoreOp(collection, "save", start, nil)
	metrics.ActivityLogged.WithLabelValues(string(models.ActionTTS)).Inc()
	s.log.LogStoreOp("save", collection, userID, id, time.Since(start))
	return id, nil
}

// GetUserHistory returns the user's activity log, most recent first
func (s *RecordStore) GetUserHistory(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	entries, err := s.repo.ListActivity(ctx, userID, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return entries, nil
}

// GetUserStats returns the per-collection record counts for a user. Pure
// cardinality, recomputed on every call; nothing is decrypted.
func (s *RecordStore) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats, err := s.repo.CountsByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return stats, nil
}

// GetUsageTotals returns the cumulative usage volume for a user
func (s *RecordStore) GetUsageTotals(ctx context.Context, userID string) (*models.UsageTotals, error) {
	totals, err := s.usage.GetTotals(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return totals, nil
}

// newLogEntry builds the activity log entry saved alongside a record
func (s *RecordStore) newLogEntry(userID string, action models.ActionType, relatedID int64, description string) *models.ActivityLog {
	return &models.ActivityLog{
		ID:          s.seqs.Next(models.ActivityLog{}.TableName()),
		UserID:      userID,
		ActionType:  action,
		RelatedID:   relatedID,
		Description: description,
		Timestamp:   models.NowMillis(),
	}
}

// addUsage applies a usage-totals update best-effort. Totals are derived
// bookkeeping, so a failure is logged, never propagated.
func (s *RecordStore) addUsage(ctx context.Context, fn func() error) {
	if s.usage == nil {
		return
	}
	if err := fn(); err != nil {
		s.log.Warn("usage totals update failed", "error", err.Error())
	}
}

// audioDuration looks up the stored duration of an audio file, 0 when
// unknown
func (s *RecordStore) audioDuration(ctx context.Context, audioID int64) int64 {
	if audioID == 0 {
		return 0
	}
	file, err := s.repo.GetAudioFile(ctx, audioID)
	if err != nil {
		return 0
	}
	return file.DurationSeconds
}

// mapStoreErr translates repository failures into the store's error
// taxonomy. Context expiry is reported as a timeout, distinct from an
// unavailable substrate.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFoundError(errors.CodeNotFound, "record not found").WithCause(err)
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return errors.NewTimeoutError("storage operation timed out").WithCause(err)
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.NewStorageUnavailableError("storage operation failed").WithCause(err)
}
