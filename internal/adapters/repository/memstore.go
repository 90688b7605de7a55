package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kyoden/utagoe/internal/domain/model"
)

// MemoryStore is a map-backed Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	scores  map[string][]model.ScoreRecord // user id -> rows, append order
	users   map[string]model.User
	artists map[string]model.Artist // keyed by name
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores:  make(map[string][]model.ScoreRecord),
		users:   make(map[string]model.User),
		artists: make(map[string]model.Artist),
	}
}

func (s *MemoryStore) RecentScores(_ context.Context, userID string, limit int) ([]model.ScoreRecord, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := append([]model.ScoreRecord(nil), s.scores[userID]...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *MemoryStore) AppendScore(_ context.Context, rec *model.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	s.nextID++
	rec.ID = s.nextID
	s.scores[rec.UserID] = append(s.scores[rec.UserID], *rec)
	return nil
}

func (s *MemoryStore) LatestScore(ctx context.Context, userID string) (model.ScoreRecord, error) {
	rows, err := s.RecentScores(ctx, userID, 1)
	if err != nil {
		return model.ScoreRecord{}, err
	}
	if len(rows) == 0 {
		return model.ScoreRecord{}, ErrNotFound
	}
	return rows[0], nil
}

func (s *MemoryStore) UpdateScore(_ context.Context, rec *model.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.scores[rec.UserID]
	for i := range rows {
		if rows[i].ID == rec.ID {
			rows[i] = *rec
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) UserByCode(_ context.Context, code string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.UserCode == code {
			return u, nil
		}
	}
	return model.User{}, ErrNotFound
}

func (s *MemoryStore) UpsertUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[u.ID]; ok {
		existing.Name = u.Name
		s.users[u.ID] = existing
		*u = existing
		return nil
	}
	s.users[u.ID] = *u
	return nil
}

func (s *MemoryStore) RecordSubmission(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.ScoreCount++
	u.LastScoreAt = &at
	s.users[userID] = u
	return nil
}

func (s *MemoryStore) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *MemoryStore) ArtistByName(_ context.Context, name string) (model.Artist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artists[name]
	if !ok {
		return model.Artist{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) UpsertArtist(_ context.Context, a *model.Artist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if existing, ok := s.artists[a.Name]; ok {
		existing.MusicBrainzID = a.MusicBrainzID
		existing.GenreTags = a.GenreTags
		s.artists[a.Name] = existing
		return nil
	}
	s.nextID++
	a.ID = s.nextID
	s.artists[a.Name] = *a
	return nil
}
