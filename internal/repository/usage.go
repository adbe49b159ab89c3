package repository

import (
	"context"

	"speechvault/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Usage maintains the cumulative per-user usage totals
type Usage interface {
	AddTranscribedSeconds(ctx context.Context, userID string, seconds int64) error
	AddTranslatedCharacters(ctx context.Context, userID string, characters int64) error
	AddTTSRequest(ctx context.Context, userID string) error
	AddRealtimeSeconds(ctx context.Context, userID string, seconds int64) error
	GetTotals(ctx context.Context, userID string) (*models.UsageTotals, error)
}

// GormUsage is the gorm-backed Usage implementation
type GormUsage struct {
	db *gorm.DB
}

// NewGormUsage creates a new gorm-backed usage repository
func NewGormUsage(db *gorm.DB) *GormUsage {
	return &GormUsage{db: db}
}

func (r *GormUsage) AddTranscribedSeconds(ctx context.Context, userID string, seconds int64) error {
	return r.add(ctx, userID, "seconds_transcribed", seconds)
}

func (r *GormUsage) AddTranslatedCharacters(ctx context.Context, userID string, characters int64) error {
	return r.add(ctx, userID, "characters_translated", characters)
}

func (r *GormUsage) AddTTSRequest(ctx context.Context, userID string) error {
	return r.add(ctx, userID, "tts_requests", 1)
}

func (r *GormUsage) AddRealtimeSeconds(ctx context.Context, userID string, seconds int64) error {
	return r.add(ctx, userID, "realtime_seconds", seconds)
}

// add upserts the user's totals row and increments one column
func (r *GormUsage) add(ctx context.Context, userID, column string, delta int64) error {
	totals := models.UsageTotals{
		UserID:      userID,
		LastUpdated: models.NowMillis(),
	}
	switch column {
	case "seconds_transcribed":
		totals.SecondsTranscribed = delta
	case "characters_translated":
		totals.CharactersTranslated = delta
	case "tts_requests":
		totals.TTSRequests = delta
	case "realtime_seconds":
		totals.RealtimeSeconds = delta
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			column:         gorm.Expr(column+" + ?", delta),
			"last_updated": totals.LastUpdated,
		}),
	}).Create(&totals).Error
}

func (r *GormUsage) GetTotals(ctx context.Context, userID string) (*models.UsageTotals, error) {
	var totals models.UsageTotals
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&totals).Error
	if err == gorm.ErrRecordNotFound {
		// No usage yet is not an error, just zeros
		return &models.UsageTotals{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &totals, nil
}
