package models

import "time"

// AudioFile represents one uploaded audio recording. Data holds the
// base64 payload in encrypted form; it is never returned decrypted by a
// plain collection scan.
type AudioFile struct {
	ID              int64  `json:"audio_id" gorm:"primaryKey;autoIncrement:false"`
	UserID          string `json:"user_id" gorm:"index"`
	Filename        string `json:"filename"`
	Language        string `json:"language"`
	UploadTime      int64  `json:"upload_time"`
	DurationSeconds int64  `json:"duration_seconds"`
	StoragePath     string `json:"file_path"`
	Data            string `json:"-" gorm:"type:text"` // encrypted base64 audio payload
	AudioURL        string `json:"audio_url,omitempty"`
}

// TableName overrides the table name
func (AudioFile) TableName() string {
	return "audio_files"
}

// NowMillis returns the current time as epoch milliseconds, the timestamp
// representation used across all record collections
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
