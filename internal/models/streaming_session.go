package models

// StreamingSession represents one live transcription session. It is the
// only mutable record kind: created with empty text and EndTime 0, then
// finalized exactly once with the encrypted final text and a real
// EndTime.
type StreamingSession struct {
	ID                int64   `json:"stream_id" gorm:"primaryKey;autoIncrement:false"`
	UserID            string  `json:"user_id" gorm:"index"`
	SessionID         string  `json:"session_id" gorm:"index"` // random UUID
	StartTime         int64   `json:"start_time"`
	EndTime           int64   `json:"end_time"` // 0 while in progress
	FinalText         string  `json:"-" gorm:"type:text"` // encrypted once finalized
	SourceLanguage    string  `json:"source_language"`
	AverageConfidence float64 `json:"confidence_avg"`
	AudioURL          string  `json:"audio_url,omitempty"`
}

// TableName overrides the table name
func (StreamingSession) TableName() string {
	return "streaming_sessions"
}

// Finalized reports whether the session has received its final results
func (s *StreamingSession) Finalized() bool {
	return s.EndTime != 0
}
