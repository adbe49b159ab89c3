package service

import (
	"context"

	"speechvault/backend/internal/models"
	"speechvault/backend/pkg/errors"
)

// View types carry plaintext for the explicit decrypt-on-read paths.
// Raw collection scans never leave the repository with plaintext.

// TranscriptionView is a transcription with its text decrypted
type TranscriptionView struct {
	models.Transcription
	Text string `json:"transcribed_text"`
}

// TranslationView is a translation with both text fields decrypted
type TranslationView struct {
	models.Translation
	OriginalText   string `json:"original_text"`
	TranslatedText string `json:"translated_text"`
}

// SpeechToSpeechView is a speech-to-speech record with decrypted texts
type SpeechToSpeechView struct {
	models.SpeechToSpeech
	TranscribedText string `json:"transcribed_text"`
	TranslatedText  string `json:"translated_text"`
}

// StreamingSessionView is a finalized session with decrypted text
type StreamingSessionView struct {
	models.StreamingSession
	FinalText string `json:"final_text"`
}

// TextToSpeechView is a synthesis record with its source text decrypted
type TextToSpeechView struct {
	models.TextToSpeech
	OriginalText string `json:"original_text"`
}

// GetUserAudioFiles lists a user's uploads. Payloads stay encrypted; use
// GetAudioData for the content.
func (s *RecordStore) GetUserAudioFiles(ctx context.Context, userID string, limit int) ([]models.AudioFile, error) {
	files, err := s.repo.ListAudioFilesByUser(ctx, userID, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return files, nil
}

// GetAudioData decrypts and returns the base64 payload of one upload.
// Records belonging to another user are reported as not found rather than
// revealing their existence.
func (s *RecordStore) GetAudioData(ctx context.Context, userID string, id int64) (string, error) {
	file, err := s.repo.GetAudioFile(ctx, id)
	if err != nil {
		return "", mapStoreErr(err)
	}
	if file.UserID != userID {
		return "", errors.NewNotFoundError(errors.CodeNotFound, "record not found")
	}
	return s.cipher.Decrypt(file.Data)
}

// GetUserTranscriptions lists a user's transcriptions with decrypted text
func (s *RecordStore) GetUserTranscriptions(ctx context.Context, userID string, limit int) ([]TranscriptionView, error) {
	records, err := s.repo.ListTranscriptionsByUser(ctx, userID, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	views := make([]TranscriptionView, 0, len(records))
	for _, record := range records {
		text, err := s.cipher.Decrypt(record.Text)
		if err != nil {
			return nil, err
		}
		views = append(views, TranscriptionView{Transcription: record, Text: text})
	}
	return views, nil
}

// GetUserTranslations lists a user's translations with decrypted texts
func (s *RecordStore) GetUserTranslations(ctx context.Context, userID string, limit int) ([]TranslationView, error) {
	records, err := s.repo.ListTranslationsByUser(ctx, userID, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	views := make([]TranslationView, 0, len(records))
	for _, record := range records {
		original, err := s.cipher.Decrypt(record.OriginalText)
		if err != nil {
			return nil, err
		}
		translated, err := s.cipher.Decrypt(record.TranslatedText)
		if err != nil {
			return nil, err
		}
		views = append(views, TranslationView{
			Translation:    record,
			OriginalText:   original,
			TranslatedText: translated,
		})
	}
	return views, nil
}

// GetUserSpeechToSpeech lists a user's speech-to-speech sessions with
// decrypted texts
func (s *RecordStore) GetUserSpeechToSpeech(ctx context.Context, userID string, limit int) ([]SpeechToSpeechView, error) {
	records, err := s.repo.ListSpeechToSpeechByUser(ctx, userID, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	views := make([]SpeechToSpeechView, 0, len(records))
	for _, record := range records {
		transcribed, err := s.cipher.Decrypt(record.TranscribedText)
		if err != nil {
			return nil, err
		}
		translated, err := s.cipher.Decrypt(record.TranslatedText)
		if err != nil {
			return nil, err
		}
		views = append(views, SpeechToSpeechView{
			SpeechToSpeech:  record,
			TranscribedText: transcribed,
			TranslatedText:  translated,
		})
	}
	return views, nil
}

// GetUserStreamingSessions lists a user's streaming sessions, decrypting
// the final text of finalized ones
func (s *RecordStore) GetUserStreamingSessions(ctx context.Context, userID string, limit int) ([]StreamingSessionView, error) {
	records, err := s.repo.ListStreamingSessionsByUser(ctx, userID, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	views := make([]StreamingSessionView, 0, len(records))
	for _, record := range records {
		text := ""
		if record.Finalized() && record.FinalText != "" {
			text, err = s.cipher.Decrypt(record.FinalText)
			if err != nil {
				return nil, err
			}
		}
		views = append(views, StreamingSessionView{StreamingSession: record, FinalText: text})
	}
	return views, nil
}

// GetUserTextToSpeech lists a user's synthesis requests with decrypted
// source text
func (s *RecordStore) GetUserTextToSpeech(ctx context.Context, userID string, limit int) ([]TextToSpeechView, error) {
	records, err := s.repo.ListTextToSpeechByUser(ctx, userID, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	views := make([]TextToSpeechView, 0, len(records))
	for _, record := range records {
		text, err := s.cipher.Decrypt(record.OriginalText)
		if err != nil {
			return nil, err
		}
		views = append(views, TextToSpeechView{TextToSpeech: record, OriginalText: text})
	}
	return views, nil
}
