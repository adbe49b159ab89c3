package service

import (
	"bytes"
	"context"
	"encoding/base64"
	stderrors "errors"
	"io"
	"testing"

	"speechvault/backend/internal/models"
	"speechvault/backend/pkg/crypto"
	"speechvault/backend/pkg/errors"
	"speechvault/backend/pkg/logger"
	"speechvault/backend/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RecordStore, *fakeRecords, *fakeUsage) {
	t.Helper()

	cipher, err := crypto.NewCipherWithKey(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)

	repo := newFakeRecords()
	usage := newFakeUsage()
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})

	return NewRecordStore(repo, usage, cipher, NewEmptySequences(), log), repo, usage
}

func TestSaveAudioFileAssignsSequentialIDs(t *testing.T) {
	store, repo, _ := newTestStore(t)
	ctx := context.Background()

	id1, err := store.SaveAudioFile(ctx, "user-1", "first.wav", bytes.NewReader([]byte("audio-one")), "en")
	require.NoError(t, err)
	id2, err := store.SaveAudioFile(ctx, "user-1", "second.wav", bytes.NewReader([]byte("audio-two")), "en")
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	require.Len(t, repo.audioFiles, 2)
	assert.Equal(t, "first.wav", repo.audioFiles[0].Filename)
	assert.Equal(t, "users/user-1/audio/1", repo.audioFiles[0].StoragePath)
	assert.NotZero(t, repo.audioFiles[0].UploadTime)
}

func TestSaveAudioFileStoresEncryptedPayload(t *testing.T) {
	store, repo, _ := newTestStore(t)
	ctx := context.Background()

	content := []byte("raw audio bytes")
	id, err := store.SaveAudioFile(ctx, "user-1", "clip.wav", bytes.NewReader(content), "")
	require.NoError(t, err)

	// The stored payload must not be the plaintext base64
	encoded := base64.StdEncoding.EncodeToString(content)
	assert.NotEqual(t, encoded, repo.audioFiles[0].Data)
	assert.NotContains(t, repo.audioFiles[0].Data, encoded)

	// Empty language falls back to auto-detection
	assert.Equal(t, "auto", repo.audioFiles[0].Language)

	// The explicit read path round-trips the original content
	data, err := store.GetAudioData(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, encoded, data)
}

func TestGetAudioDataHidesOtherUsersRecords(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveAudioFile(ctx, "owner", "clip.wav", bytes.NewReader([]byte("secret")), "en")
	require.NoError(t, err)

	_, err = store.GetAudioData(ctx, "intruder", id)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestUploadThenTranscribe(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	audioID, err := store.SaveAudioFile(ctx, "user-1", "meeting.wav", bytes.NewReader([]byte("pcm")), "en")
	require.NoError(t, err)
	assert.Equal(t, int64(1), audioID)

	// Transcriptions number independently, so the first one is also 1
	transcriptionID, err := store.SaveTranscription(ctx, audioID, "user-1", "hello world", "en", 0.95, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), transcriptionID)

	history, err := store.GetUserHistory(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Most recent first
	assert.Equal(t, models.ActionTranscribe, history[0].ActionType)
	assert.Equal(t, transcriptionID, history[0].RelatedID)
	assert.Equal(t, models.ActionUpload, history[1].ActionType)
	assert.Equal(t, audioID, history[1].RelatedID)
	assert.Equal(t, "Uploaded audio file: meeting.wav", history[1].Description)

	stats, err := store.GetUserStats(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.AudioFiles)
	assert.Equal(t, int64(1), stats.Transcriptions)
	assert.Equal(t, int64(0), stats.Translations)
	assert.Equal(t, int64(0), stats.SpeechToSpeech)
	assert.Equal(t, int64(0), stats.StreamingSessions)
}

func TestTranscriptionDefaultsToBatchMethod(t *testing.T) {
	store, repo, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveTranscription(ctx, 0, "user-1", "text", "en", 0.8, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.MethodBatch, repo.transcriptions[0].Method)

	_, err = store.SaveTranscription(ctx, 0, "user-1", "text", "en", 0.8, models.MethodStreaming, "")
	require.NoError(t, err)
	assert.Equal(t, models.MethodStreaming, repo.transcriptions[1].Method)
}

func TestSaveTranslationEncryptsBothTextsIndependently(t *testing.T) {
	store, repo, usage := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveTranslation(ctx, 0, "user-1", "en", "fr", "hello", "bonjour", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	record := repo.translations[0]
	assert.NotEqual(t, "hello", record.OriginalText)
	assert.NotEqual(t, "bonjour", record.TranslatedText)
	assert.NotEqual(t, record.OriginalText, record.TranslatedText)

	views, err := store.GetUserTranslations(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "hello", views[0].OriginalText)
	assert.Equal(t, "bonjour", views[0].TranslatedText)

	totals, err := usage.GetTotals(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(len("hello")), totals.CharactersTranslated)
}

func TestSaveSpeechToSpeechLogsCompletion(t *testing.T) {
	store, repo, _ := newTestStore(t)
	ctx := context.Background()

	id, err := store.SaveSpeechToSpeech(ctx, 0, "user-1", "en", "de", "orig.mp3", "hello", "hallo", "synth.mp3")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.Len(t, repo.activity, 1)
	assert.Equal(t, models.ActionS2S, repo.activity[0].ActionType)
	assert.Equal(t, "Completed speech-to-speech translation", repo.activity[0].Description)

	views, err := store.GetUserSpeechToSpeech(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "hello", views[0].TranscribedText)
	assert.Equal(t, "hallo", views[0].TranslatedText)
}

func TestSaveTextToSpeechDefaultsVoice(t *testing.T) {
	store, repo, usage := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveTextToSpeech(ctx, "user-1", "read this aloud", "en", "out.mp3", "")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultVoiceType, repo.textToSpeech[0].VoiceType)

	totals, err := usage.GetTotals(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.TTSRequests)
}

func TestStreamingSessionLifecycle(t *testing.T) {
	store, repo, _ := newTestStore(t)
	ctx := context.Background()

	session, err := store.StartStreamingSession(ctx, "user-1", "en")
	require.NoError(t, err)
	assert.Equal(t, int64(1), session.ID)
	assert.NotEmpty(t, session.SessionID)
	assert.Zero(t, session.EndTime)
	assert.False(t, session.Finalized())

	// Starting a session is logged once
	require.Len(t, repo.activity, 1)
	assert.Equal(t, models.ActionStreaming, repo.activity[0].ActionType)

	err = store.UpdateStreamingSession(ctx, "user-1", session.ID, "final transcript", 0.91, "stream.mp3")
	require.NoError(t, err)

	// Finalization appends no second log entry
	assert.Len(t, repo.activity, 1)

	views, err := store.GetUserStreamingSessions(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].StreamingSession.Finalized())
	assert.Equal(t, "final transcript", views[0].FinalText)
	assert.Equal(t, 0.91, views[0].AverageConfidence)
}

func TestUpdateStreamingSessionIsLastWriteWins(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	session, err := store.StartStreamingSession(ctx, "user-1", "en")
	require.NoError(t, err)

	require.NoError(t, store.UpdateStreamingSession(ctx, "user-1", session.ID, "first", 0.5, ""))
	require.NoError(t, store.UpdateStreamingSession(ctx, "user-1", session.ID, "second", 0.9, "final.mp3"))

	views, err := store.GetUserStreamingSessions(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "second", views[0].FinalText)
	assert.Equal(t, 0.9, views[0].AverageConfidence)
}

func TestUpdateStreamingSessionMissingIDIsNotFound(t *testing.T) {
	store, _, _ := newTestStore(t)

	err := store.UpdateStreamingSession(context.Background(), "user-1", 999, "text", 0.5, "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestUpdateStreamingSessionRejectsOtherUsers(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	session, err := store.StartStreamingSession(ctx, "alice", "en")
	require.NoError(t, err)

	err = store.UpdateStreamingSession(ctx, "mallory", session.ID, "injected text", 1.0, "mallory.mp3")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	// The owner's session is untouched and still open
	views, err := store.GetUserStreamingSessions(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].StreamingSession.Finalized())
	assert.Empty(t, views[0].FinalText)
}

func TestFinalizeAccruesRealtimeSecondsOnce(t *testing.T) {
	store, repo, usage := newTestStore(t)
	ctx := context.Background()

	session, err := store.StartStreamingSession(ctx, "user-1", "en")
	require.NoError(t, err)

	// Backdate the start so the elapsed time is deterministic
	repo.mu.Lock()
	repo.streamingSessions[0].StartTime -= 90 * 1000
	repo.mu.Unlock()

	require.NoError(t, store.UpdateStreamingSession(ctx, "user-1", session.ID, "final", 0.8, ""))

	totals, err := usage.GetTotals(ctx, "user-1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, totals.RealtimeSeconds, int64(90))

	// A repeated finalize must not accrue a second time
	accrued := totals.RealtimeSeconds
	require.NoError(t, store.UpdateStreamingSession(ctx, "user-1", session.ID, "final again", 0.8, ""))

	totals, err = usage.GetTotals(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, accrued, totals.RealtimeSeconds)
}

func TestActiveSessionsGaugeSurvivesRepeatedFinalize(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	before := testutil.ToFloat64(metrics.StreamingSessionsActive)

	session, err := store.StartStreamingSession(ctx, "user-1", "en")
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StreamingSessionsActive))

	require.NoError(t, store.UpdateStreamingSession(ctx, "user-1", session.ID, "first", 0.5, ""))
	require.NoError(t, store.UpdateStreamingSession(ctx, "user-1", session.ID, "second", 0.9, ""))

	assert.Equal(t, before, testutil.ToFloat64(metrics.StreamingSessionsActive))
}

func TestPerUserIsolation(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveAudioFile(ctx, "alice", "alice.wav", bytes.NewReader([]byte("a")), "en")
	require.NoError(t, err)
	_, err = store.SaveAudioFile(ctx, "bob", "bob.wav", bytes.NewReader([]byte("b")), "en")
	require.NoError(t, err)
	_, err = store.SaveTranscription(ctx, 0, "bob", "bob text", "en", 0.9, "", "")
	require.NoError(t, err)

	aliceFiles, err := store.GetUserAudioFiles(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, aliceFiles, 1)
	assert.Equal(t, "alice.wav", aliceFiles[0].Filename)

	aliceHistory, err := store.GetUserHistory(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, aliceHistory, 1)
	assert.Equal(t, "alice", aliceHistory[0].UserID)

	aliceStats, err := store.GetUserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), aliceStats.AudioFiles)
	assert.Equal(t, int64(0), aliceStats.Transcriptions)

	bobStats, err := store.GetUserStats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), bobStats.AudioFiles)
	assert.Equal(t, int64(1), bobStats.Transcriptions)
}

func TestSaveFailureWritesNoRecordAndNoLogEntry(t *testing.T) {
	store, repo, _ := newTestStore(t)
	repo.failSaves = stderrors.New("connection refused")

	_, err := store.SaveAudioFile(context.Background(), "user-1", "clip.wav", bytes.NewReader([]byte("x")), "en")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeStorageUnavailable))

	assert.Empty(t, repo.audioFiles)
	assert.Empty(t, repo.activity)
}

func TestSaveSurfacesContextExpiryAsTimeout(t *testing.T) {
	store, repo, _ := newTestStore(t)
	repo.failSaves = context.DeadlineExceeded

	_, err := store.SaveTranscription(context.Background(), 0, "user-1", "text", "en", 0.9, "", "")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeTimeout))
}

func TestUsageTotalsFailureDoesNotFailSave(t *testing.T) {
	store, repo, usage := newTestStore(t)
	usage.failAdds = stderrors.New("totals table locked")

	_, err := store.SaveTranslation(context.Background(), 0, "user-1", "en", "es", "hi", "hola", "")
	require.NoError(t, err)
	assert.Len(t, repo.translations, 1)
}

func TestHistoryLimitIsApplied(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.SaveTextToSpeech(ctx, "user-1", "text", "en", "", "")
		require.NoError(t, err)
	}

	history, err := store.GetUserHistory(ctx, "user-1", 3)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestGetUserTranscriptionsDecryptsText(t *testing.T) {
	store, repo, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveTranscription(ctx, 0, "user-1", "the quick brown fox", "en", 0.99, "", "")
	require.NoError(t, err)

	assert.NotEqual(t, "the quick brown fox", repo.transcriptions[0].Text)

	views, err := store.GetUserTranscriptions(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "the quick brown fox", views[0].Text)
}
