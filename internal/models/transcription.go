package models

// Transcription methods
const (
	MethodBatch     = "batch"
	MethodStreaming = "streaming"
)

// Transcription represents speech-to-text output for one audio file.
// One AudioFile may have zero or more Transcriptions.
type Transcription struct {
	ID         int64   `json:"transcription_id" gorm:"primaryKey;autoIncrement:false"`
	AudioID    int64   `json:"audio_id" gorm:"index"`
	UserID     string  `json:"user_id" gorm:"index"`
	Text       string  `json:"-" gorm:"column:transcribed_text;type:text"` // encrypted
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
	Method     string  `json:"method"` // batch or streaming
	CreatedAt  int64   `json:"created_at"`
	AudioURL   string  `json:"audio_url,omitempty"`
}

// TableName overrides the table name
func (Transcription) TableName() string {
	return "transcriptions"
}
