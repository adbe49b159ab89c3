package models

// UsageTotals accumulates per-user usage volume alongside the record
// counts: how much was transcribed, translated and synthesized, not just
// how many records exist.
type UsageTotals struct {
	ID                   uint   `gorm:"primaryKey" json:"-"`
	UserID               string `gorm:"uniqueIndex" json:"user_id"`
	SecondsTranscribed   int64  `json:"seconds_transcribed"`
	CharactersTranslated int64  `json:"characters_translated"`
	TTSRequests          int64  `json:"tts_requests"`
	RealtimeSeconds      int64  `json:"realtime_seconds"`
	LastUpdated          int64  `json:"last_updated"`
}

// TableName overrides the table name
func (UsageTotals) TableName() string {
	return "usage_totals"
}

// UserStats is the record-count view of a user's activity, one count per
// collection, computed fresh on every call
type UserStats struct {
	AudioFiles        int64 `json:"audio_files"`
	Transcriptions    int64 `json:"transcriptions"`
	Translations      int64 `json:"translations"`
	SpeechToSpeech    int64 `json:"speech_to_speech"`
	StreamingSessions int64 `json:"streaming_sessions"`
}
