package service

import (
	"context"
	"sort"
	"sync"

	"speechvault/backend/internal/models"
	"speechvault/backend/internal/repository"
)

// fakeRecords is an in-memory Records implementation. Saves append the
// record and the log entry atomically, mirroring the transactional
// behavior of the real repository: when failSaves is set, neither is
// written.
type fakeRecords struct {
	mu sync.Mutex

	audioFiles        []models.AudioFile
	transcriptions    []models.Transcription
	translations      []models.Translation
	speechToSpeech    []models.SpeechToSpeech
	streamingSessions []models.StreamingSession
	textToSpeech      []models.TextToSpeech
	activity          []models.ActivityLog

	maxIDs map[string]int64

	failSaves error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{maxIDs: make(map[string]int64)}
}

func (f *fakeRecords) SaveAudioFile(ctx context.Context, file *models.AudioFile, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves != nil {
		return f.failSaves
	}
	f.audioFiles = append(f.audioFiles, *file)
	f.activity = append(f.activity, *entry)
	return nil
}

func (f *fakeRecords) SaveTranscription(ctx context.Context, t *models.Transcription, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves != nil {
		return f.failSaves
	}
	f.transcriptions = append(f.transcriptions, *t)
	f.activity = append(f.activity, *entry)
	return nil
}

func (f *fakeRecords) SaveTranslation(ctx context.Context, t *models.Translation, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves != nil {
		return f.failSaves
	}
	f.translations = append(f.translations, *t)
	f.activity = append(f.activity, *entry)
	return nil
}

func (f *fakeRecords) SaveSpeechToSpeech(ctx context.Context, s *models.SpeechToSpeech, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves != nil {
		return f.failSaves
	}
	f.speechToSpeech = append(f.speechToSpeech, *s)
	f.activity = append(f.activity, *entry)
	return nil
}

func (f *fakeRecords) SaveStreamingSession(ctx context.Context, s *models.StreamingSession, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves != nil {
		return f.failSaves
	}
	f.streamingSessions = append(f.streamingSessions, *s)
	f.activity = append(f.activity, *entry)
	return nil
}

func (f *fakeRecords) SaveTextToSpeech(ctx context.Context, t *models.TextToSpeech, entry *models.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves != nil {
		return f.failSaves
	}
	f.textToSpeech = append(f.textToSpeech, *t)
	f.activity = append(f.activity, *entry)
	return nil
}

func (f *fakeRecords) FinalizeStreamingSession(ctx context.Context, id int64, userID string, finalText string, averageConfidence float64, audioURL string, endTime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.streamingSessions {
		if f.streamingSessions[i].ID == id && f.streamingSessions[i].UserID == userID {
			f.streamingSessions[i].FinalText = finalText
			f.streamingSessions[i].AverageConfidence = averageConfidence
			f.streamingSessions[i].AudioURL = audioURL
			f.streamingSessions[i].EndTime = endTime
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRecords) GetAudioFile(ctx context.Context, id int64) (*models.AudioFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.audioFiles {
		if f.audioFiles[i].ID == id {
			file := f.audioFiles[i]
			return &file, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRecords) GetStreamingSession(ctx context.Context, id int64) (*models.StreamingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.streamingSessions {
		if f.streamingSessions[i].ID == id {
			session := f.streamingSessions[i]
			return &session, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRecords) ListAudioFilesByUser(ctx context.Context, userID string, limit int) ([]models.AudioFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AudioFile
	for _, r := range f.audioFiles {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return capped(out, limit), nil
}

func (f *fakeRecords) ListTranscriptionsByUser(ctx context.Context, userID string, limit int) ([]models.Transcription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transcription
	for _, r := range f.transcriptions {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return capped(out, limit), nil
}

func (f *fakeRecords) ListTranscriptionsByAudio(ctx context.Context, audioID int64) ([]models.Transcription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transcription
	for _, r := range f.transcriptions {
		if r.AudioID == audioID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRecords) ListTranslationsByUser(ctx context.Context, userID string, limit int) ([]models.Translation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Translation
	for _, r := range f.translations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return capped(out, limit), nil
}

func (f *fakeRecords) ListSpeechToSpeechByUser(ctx context.Context, userID string, limit int) ([]models.SpeechToSpeech, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.SpeechToSpeech
	for _, r := range f.speechToSpeech {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return capped(out, limit), nil
}

func (f *fakeRecords) ListStreamingSessionsByUser(ctx context.Context, userID string, limit int) ([]models.StreamingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StreamingSession
	for _, r := range f.streamingSessions {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return capped(out, limit), nil
}

func (f *fakeRecords) ListTextToSpeechByUser(ctx context.Context, userID string, limit int) ([]models.TextToSpeech, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TextToSpeech
	for _, r := range f.textToSpeech {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return capped(out, limit), nil
}

func (f *fakeRecords) ListActivity(ctx context.Context, userID string, limit int) ([]models.ActivityLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ActivityLog
	for _, e := range f.activity {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	return capped(out, limit), nil
}

func (f *fakeRecords) CountsByUser(ctx context.Context, userID string) (*models.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.UserStats{}
	for _, r := range f.audioFiles {
		if r.UserID == userID {
			stats.AudioFiles++
		}
	}
	for _, r := range f.transcriptions {
		if r.UserID == userID {
			stats.Transcriptions++
		}
	}
	for _, r := range f.translations {
		if r.UserID == userID {
			stats.Translations++
		}
	}
	for _, r := range f.speechToSpeech {
		if r.UserID == userID {
			stats.SpeechToSpeech++
		}
	}
	for _, r := range f.streamingSessions {
		if r.UserID == userID {
			stats.StreamingSessions++
		}
	}
	return stats, nil
}

func (f *fakeRecords) MaxID(ctx context.Context, tableName string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxIDs[tableName], nil
}

func capped[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// fakeUsage accumulates usage totals in memory
type fakeUsage struct {
	mu     sync.Mutex
	totals map[string]*models.UsageTotals

	failAdds error
}

func newFakeUsage() *fakeUsage {
	return &fakeUsage{totals: make(map[string]*models.UsageTotals)}
}

func (f *fakeUsage) get(userID string) *models.UsageTotals {
	if _, ok := f.totals[userID]; !ok {
		f.totals[userID] = &models.UsageTotals{UserID: userID}
	}
	return f.totals[userID]
}

func (f *fakeUsage) AddTranscribedSeconds(ctx context.Context, userID string, seconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdds != nil {
		return f.failAdds
	}
	f.get(userID).SecondsTranscribed += seconds
	return nil
}

func (f *fakeUsage) AddTranslatedCharacters(ctx context.Context, userID string, characters int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdds != nil {
		return f.failAdds
	}
	f.get(userID).CharactersTranslated += characters
	return nil
}

func (f *fakeUsage) AddTTSRequest(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdds != nil {
		return f.failAdds
	}
	f.get(userID).TTSRequests++
	return nil
}

func (f *fakeUsage) AddRealtimeSeconds(ctx context.Context, userID string, seconds int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdds != nil {
		return f.failAdds
	}
	f.get(userID).RealtimeSeconds += seconds
	return nil
}

func (f *fakeUsage) GetTotals(ctx context.Context, userID string) (*models.UsageTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := *f.get(userID)
	return &totals, nil
}
