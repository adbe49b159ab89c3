package models

// DefaultVoiceType is used when the caller does not pick a voice
const DefaultVoiceType = "NEUTRAL"

// TextToSpeech represents one synthesis request and its output audio URL
type TextToSpeech struct {
	ID           int64  `json:"tts_id" gorm:"primaryKey;autoIncrement:false"`
	UserID       string `json:"user_id" gorm:"index"`
	OriginalText string `json:"-" gorm:"type:text"` // encrypted
	Language     string `json:"language"`
	VoiceType    string `json:"voice_type"`
	AudioURL     string `json:"audio_url"`
	CreatedAt    int64  `json:"created_at"`
}

// TableName overrides the table name
func (TextToSpeech) TableName() string {
	return "text_to_speech"
}
