package models

// ActionType classifies an activity log entry
type ActionType string

// Action types, one per record-producing operation
const (
	ActionUpload     ActionType = "upload"
	ActionTranscribe ActionType = "transcribe"
	ActionTranslate  ActionType = "translate"
	ActionS2S        ActionType = "s2s"
	ActionStreaming  ActionType = "streaming"
	ActionTTS        ActionType = "tts"
)

// ActivityLog is the append-only record of every successful write to the
// other collections. RelatedID is the id of the record the action
// produced, within that record's own collection.
type ActivityLog struct {
	ID          int64      `json:"log_id" gorm:"primaryKey;autoIncrement:false"`
	UserID      string     `json:"user_id" gorm:"index"`
	ActionType  ActionType `json:"action_type" gorm:"index"`
	RelatedID   int64      `json:"related_id"`
	Description string     `json:"description"`
	Timestamp   int64      `json:"timestamp"`
}

// TableName overrides the table name
func (ActivityLog) TableName() string {
	return "activity_logs"
}
