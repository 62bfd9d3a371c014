package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type collectionKey struct {
	list   List
	userID string
}

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]User
	collections map[collectionKey][]AnimeItem
	history     map[string][]HistoryItem
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]User),
		collections: make(map[collectionKey][]AnimeItem),
		history:     make(map[string][]HistoryItem),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, p CreateUserParams) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == p.Username || strings.EqualFold(u.Email, p.Email) {
			return User{}, ErrConflict
		}
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Bio:          DefaultBio,
		AvatarColor:  DefaultAvatarColor,
		CreatedAt:    s.now(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) FindUserByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := lo.Find(lo.Values(s.users), func(u User) bool { return u.Username == username })
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, userID, bio, avatarColor string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	if bio != "" {
		u.Bio = bio
	}
	if avatarColor != "" {
		u.AvatarColor = avatarColor
	}
	s.users[userID] = u
	return u, nil
}

func (s *MemoryStore) AddItem(_ context.Context, list List, userID string, item AnimeItem) error {
	if !list.valid() {
		return fmt.Errorf("store: unknown list %q", list)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := collectionKey{list, userID}
	if lo.ContainsBy(s.collections[key], func(it AnimeItem) bool { return it.AnimeID == item.AnimeID }) {
		return ErrExists
	}
	if item.Format == "" {
		item.Format = DefaultFormat
	}
	item.AddedAt = s.now()
	s.collections[key] = append(s.collections[key], item)
	return nil
}

func (s *MemoryStore) RemoveItem(_ context.Context, list List, userID string, animeID int) error {
	if !list.valid() {
		return fmt.Errorf("store: unknown list %q", list)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := collectionKey{list, userID}
	s.collections[key] = lo.Reject(s.collections[key], func(it AnimeItem, _ int) bool { return it.AnimeID == animeID })
	return nil
}

func (s *MemoryStore) ListItems(_ context.Context, list List, userID string) ([]AnimeItem, error) {
	if !list.valid() {
		return nil, fmt.Errorf("store: unknown list %q", list)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]AnimeItem, len(s.collections[collectionKey{list, userID}]))
	copy(out, s.collections[collectionKey{list, userID}])
	return out, nil
}

// UpsertHistory moves the entry to the front so the slice stays ordered by
// last update.
func (s *MemoryStore) UpsertHistory(_ context.Context, userID string, item HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.UpdatedAt = s.now()
	rest := lo.Reject(s.history[userID], func(it HistoryItem, _ int) bool { return it.AnimeID == item.AnimeID })
	s.history[userID] = append([]HistoryItem{item}, rest...)
	return nil
}

func (s *MemoryStore) ListHistory(_ context.Context, userID string) ([]HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HistoryItem, len(s.history[userID]))
	copy(out, s.history[userID])
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
