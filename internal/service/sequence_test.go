package service

import (
	"context"
	"sort"
	"sync"
	"testing"

	"speechvault/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceStartsAtOne(t *testing.T) {
	seq := NewSequence(0)

	assert.Equal(t, int64(1), seq.Next())
	assert.Equal(t, int64(2), seq.Next())
	assert.Equal(t, int64(3), seq.Next())
}

func TestSequenceResumesFromSeed(t *testing.T) {
	// A store that already holds ids up to 41 must hand out 42 next
	seq := NewSequence(41)

	assert.Equal(t, int64(42), seq.Next())
	assert.Equal(t, int64(43), seq.Next())
}

func TestSequenceConcurrentNextIsUniqueAndGapless(t *testing.T) {
	const goroutines = 32
	const perGoroutine = 100

	seq := NewSequence(0)
	ids := make(chan int64, goroutines*perGoroutine)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				ids <- seq.Next()
			}
		}()
	}
	wg.Wait()
	close(ids)

	collected := make([]int64, 0, goroutines*perGoroutine)
	for id := range ids {
		collected = append(collected, id)
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i] < collected[j] })

	require.Len(t, collected, goroutines*perGoroutine)
	for i, id := range collected {
		assert.Equal(t, int64(i+1), id, "ids must be dense and unique")
	}
}

func TestSequencesAreIndependentPerCollection(t *testing.T) {
	seqs := NewEmptySequences()

	audio := models.AudioFile{}.TableName()
	transcriptions := models.Transcription{}.TableName()

	assert.Equal(t, int64(1), seqs.Next(audio))
	assert.Equal(t, int64(2), seqs.Next(audio))

	// A busy audio collection must not advance the transcription ids
	assert.Equal(t, int64(1), seqs.Next(transcriptions))
}

func TestNewSequencesSeedsFromRepository(t *testing.T) {
	repo := newFakeRecords()
	repo.maxIDs[models.AudioFile{}.TableName()] = 7
	repo.maxIDs[models.ActivityLog{}.TableName()] = 19

	seqs, err := NewSequences(context.Background(), repo)
	require.NoError(t, err)

	assert.Equal(t, int64(8), seqs.Next(models.AudioFile{}.TableName()))
	assert.Equal(t, int64(20), seqs.Next(models.ActivityLog{}.TableName()))
	assert.Equal(t, int64(1), seqs.Next(models.Translation{}.TableName()))
}
