package models

// SpeechToSpeech combines transcription, translation and synthesis into
// one record. TranslationID may be 0 when no separate translation record
// exists.
type SpeechToSpeech struct {
	ID                  int64  `json:"s2s_id" gorm:"primaryKey;autoIncrement:false"`
	TranslationID       int64  `json:"translation_id" gorm:"index"`
	UserID              string `json:"user_id" gorm:"index"`
	SourceLanguage      string `json:"source_language"`
	TargetLanguage      string `json:"target_language"`
	OriginalAudioURL    string `json:"original_audio_url"`
	TranscribedText     string `json:"-" gorm:"type:text"` // encrypted
	TranslatedText      string `json:"-" gorm:"type:text"` // encrypted
	SynthesizedAudioURL string `json:"synthesized_audio_url"`
	CreatedAt           int64  `json:"created_at"`
}

// TableName overrides the table name
func (SpeechToSpeech) TableName() string {
	return "speech_to_speech"
}
