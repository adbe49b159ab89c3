package models

// Translation represents translated text derived from a transcription.
// TranscriptionID is 0 when the source text did not come from a stored
// transcription. Both text fields are encrypted independently.
type Translation struct {
	ID              int64  `json:"translation_id" gorm:"primaryKey;autoIncrement:false"`
	TranscriptionID int64  `json:"transcription_id" gorm:"index"`
	UserID          string `json:"user_id" gorm:"index"`
	SourceLanguage  string `json:"source_language"`
	TargetLanguage  string `json:"target_language"`
	OriginalText    string `json:"-" gorm:"type:text"` // encrypted
	TranslatedText  string `json:"-" gorm:"type:text"` // encrypted
	CreatedAt       int64  `json:"created_at"`
	AudioURL        string `json:"audio_url,omitempty"`
}

// TableName overrides the table name
func (Translation) TableName() string {
	return "translations"
}
