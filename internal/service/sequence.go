package service

import (
	"context"
	"fmt"
	"sync"

	"speechvault/backend/internal/models"
	"speechvault/backend/internal/repository"
)

// Sequence issues monotonically increasing identifiers for one
// collection. Assign-then-increment: the first id issued is seed+1, so a
// fresh collection starts at 1.
type Sequence struct {
	mu   sync.Mutex
	next int64
}

// NewSequence creates a sequence that will issue seed+1 first
func NewSequence(seed int64) *Sequence {
	return &Sequence{next: seed + 1}
}

// Next returns the next identifier
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	return id
}

// Sequences holds one id sequence per record collection, reseeded from
// the store's MAX(id) at startup so identifiers survive restarts.
type Sequences struct {
	byCollection map[string]*Sequence
}

// sequencedCollections enumerates every collection that assigns ids from
// an in-process sequence
var sequencedCollections = []string{
	models.AudioFile{}.TableName(),
	models.Transcription{}.TableName(),
	models.Translation{}.TableName(),
	models.SpeechToSpeech{}.TableName(),
	models.StreamingSession{}.TableName(),
	models.TextToSpeech{}.TableName(),
	models.ActivityLog{}.TableName(),
}

// NewSequences rederives every collection's sequence from the repository
func NewSequences(ctx context.Context, repo repository.Records) (*Sequences, error) {
	seqs := &Sequences{byCollection: make(map[string]*Sequence, len(sequencedCollections))}

	for _, collection := range sequencedCollections {
		seed, err := repo.MaxID(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("failed to seed sequence for %s: %w", collection, err)
		}
		seqs.byCollection[collection] = NewSequence(seed)
	}

	return seqs, nil
}

// NewEmptySequences creates sequences all starting at 1, for fresh stores
// and tests
func NewEmptySequences() *Sequences {
	seqs := &Sequences{byCollection: make(map[string]*Sequence, len(sequencedCollections))}
	for _, collection := range sequencedCollections {
		seqs.byCollection[collection] = NewSequence(0)
	}
	return seqs
}

// Next issues the next identifier for a collection
func (s *Sequences) Next(collection string) int64 {
	return s.byCollection[collection].Next()
}
