package repository

import (
	"context"
	"errors"

	"speechvault/backend/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a targeted update matches no record
var ErrNotFound = errors.New("record not found")

// Records is the persistence substrate for the record store. Every save
// writes the primary record and its activity log entry inside one
// transaction, record first.
type Records interface {
	SaveAudioFile(ctx context.Context, file *models.AudioFile, entry *models.ActivityLog) error
	SaveTranscription(ctx context.Context, t *models.Transcription, entry *models.ActivityLog) error
	SaveTranslation(ctx context.Context, t *models.Translation, entry *models.ActivityLog) error
	SaveSpeechToSpeech(ctx context.Context, s *models.SpeechToSpeech, entry *models.ActivityLog) error
	SaveStreamingSession(ctx context.Context, s *models.StreamingSession, entry *models.ActivityLog) error
	SaveTextToSpeech(ctx context.Context, t *models.TextToSpeech, entry *models.ActivityLog) error

	// FinalizeStreamingSession overwrites the mutable fields of the
	// session identified by id, scoped to the owning user. Returns
	// ErrNotFound when no session with that id belongs to the user.
	FinalizeStreamingSession(ctx context.Context, id int64, userID string, finalText string, averageConfidence float64, audioURL string, endTime int64) error

	GetAudioFile(ctx context.Context, id int64) (*models.AudioFile, error)
	GetStreamingSession(ctx context.Context, id int64) (*models.StreamingSession, error)

	ListAudioFilesByUser(ctx context.Context, userID string, limit int) ([]models.AudioFile, error)
	ListTranscriptionsByUser(ctx context.Context, userID string, limit int) ([]models.Transcription, error)
	ListTranscriptionsByAudio(ctx context.Context, audioID int64) ([]models.Transcription, error)
	ListTranslationsByUser(ctx context.Context, userID string, limit int) ([]models.Translation, error)
	ListSpeechToSpeechByUser(ctx context.Context, userID string, limit int) ([]models.SpeechToSpeech, error)
	ListStreamingSessionsByUser(ctx context.Context, userID string, limit int) ([]models.StreamingSession, error)
	ListTextToSpeechByUser(ctx context.Context, userID string, limit int) ([]models.TextToSpeech, error)

	// ListActivity returns the user's log entries, most recent first
	ListActivity(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error)

	// CountsByUser returns the per-collection record counts for a user
	CountsByUser(ctx context.Context, userID string) (*models.UserStats, error)

	// MaxID returns the highest assigned id in a collection, 0 when empty.
	// The store's sequences reseed from this at startup.
	MaxID(ctx context.Context, tableName string) (int64, error)
}

// GormRecords is the gorm-backed Records implementation
type GormRecords struct {
	db *gorm.DB
}

// NewGormRecords creates a new gorm-backed repository
func NewGormRecords(db *gorm.DB) *GormRecords {
	return &GormRecords{db: db}
}

// saveWithLog writes the record and then its log entry in one transaction
func (r *GormRecords) saveWithLog(ctx context.Context, record any, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return tx.Create(entry).Error
	})
}

func (r *GormRecords) SaveAudioFile(ctx context.Context, file *models.AudioFile, entry *models.ActivityLog) error {
	return r.saveWithLog(ctx, file, entry)
}

func (r *GormRecords) SaveTranscription(ctx context.Context, t *models.Transcription, entry *models.ActivityLog) error {
	return r.saveWithLog(ctx, t, entry)
}

func (r *GormRecords) SaveTranslation(ctx context.Context, t *models.Translation, entry *models.ActivityLog) error {
	return r.saveWithLog(ctx, t, entry)
}

func (r *GormRecords) SaveSpeechToSpeech(ctx context.Context, s *models.SpeechToSpeech, entry *models.ActivityLog) error {
	return r.saveWithLog(ctx, s, entry)
}

func (r *GormRecords) SaveStreamingSession(ctx context.Context, s *models.StreamingSession, entry *models.ActivityLog) error {
	return r.saveWithLog(ctx, s, entry)
}

func (r *GormRecords) SaveTextToSpeech(ctx context.Context, t *models.TextToSpeech, entry *models.ActivityLog) error {
	return r.saveWithLog(ctx, t, entry)
}

func (r *GormRecords) FinalizeStreamingSession(ctx context.Context, id int64, userID string, finalText string, averageConfidence float64, audioURL string, endTime int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.StreamingSession{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"final_text":         finalText,
			"average_confidence": averageConfidence,
			"audio_url":          audioURL,
			"end_time":           endTime,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRecords) GetAudioFile(ctx context.Context, id int64) (*models.AudioFile, error) {
	var file models.AudioFile
	err := r.db.WithContext(ctx).First(&file, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *GormRecords) GetStreamingSession(ctx context.Context, id int64) (*models.StreamingSession, error) {
	var session models.StreamingSession
	err := r.db.WithContext(ctx).First(&session, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *GormRecords) ListAudioFilesByUser(ctx context.Context, userID string, limit int) ([]models.AudioFile, error) {
	var files []models.AudioFile
	err := r.byUser(ctx, userID, limit).Find(&files).Error
	return files, err
}

func (r *GormRecords) ListTranscriptionsByUser(ctx context.Context, userID string, limit int) ([]models.Transcription, error) {
	var records []models.Transcription
	err := r.byUser(ctx, userID, limit).Find(&records).Error
	return records, err
}

func (r *GormRecords) ListTranscriptionsByAudio(ctx context.Context, audioID int64) ([]models.Transcription, error) {
	var records []models.Transcription
	err := r.db.WithContext(ctx).Where("audio_id = ?", audioID).Order("id").Find(&records).Error
	return records, err
}

func (r *GormRecords) ListTranslationsByUser(ctx context.Context, userID string, limit int) ([]models.Translation, error) {
	var records []models.Translation
	err := r.byUser(ctx, userID, limit).Find(&records).Error
	return records, err
}

func (r *GormRecords) ListSpeechToSpeechByUser(ctx context.Context, userID string, limit int) ([]models.SpeechToSpeech, error) {
	var records []models.SpeechToSpeech
	err := r.byUser(ctx, userID, limit).Find(&records).Error
	return records, err
}

func (r *GormRecords) ListStreamingSessionsByUser(ctx context.Context, userID string, limit int) ([]models.StreamingSession, error) {
	var records []models.StreamingSession
	err := r.byUser(ctx, userID, limit).Find(&records).Error
	return records, err
}

func (r *GormRecords) ListTextToSpeechByUser(ctx context.Context, userID string, limit int) ([]models.TextToSpeech, error) {
	var records []models.TextToSpeech
	err := r.byUser(ctx, userID, limit).Find(&records).Error
	return records, err
}

func (r *GormRecords) ListActivity(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&entries).Error
	return entries, err
}

func (r *GormRecords) CountsByUser(ctx context.Context, userID string) (*models.UserStats, error) {
	stats := &models.UserStats{}

	counts := []struct {
		model any
		dest  *int64
	}{
		{&models.AudioFile{}, &stats.AudioFiles},
		{&models.Transcription{}, &stats.Transcriptions},
		{&models.Translation{}, &stats.Translations},
		{&models.SpeechToSpeech{}, &stats.SpeechToSpeech},
		{&models.StreamingSession{}, &stats.StreamingSessions},
	}

	for _, c := range counts {
		if err := r.db.WithContext(ctx).Model(c.model).Where("user_id = ?", userID).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func (r *GormRecords) MaxID(ctx context.Context, tableName string) (int64, error) {
	var maxID int64
	err := r.db.WithContext(ctx).
		Table(tableName).
		Select("COALESCE(MAX(id), 0)").
		Scan(&maxID).Error
	return maxID, err
}

func (r *GormRecords) byUser(ctx context.Context, userID string, limit int) *gorm.DB {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}
