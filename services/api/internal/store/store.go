// Package store persists user accounts and their per-user anime collections.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

const (
	DefaultBio         = "Apenas um fã de animes."
	DefaultAvatarColor = "purple"
	DefaultFormat      = "TV"
)

// List names a per-user anime collection.
type List string

const (
	Favorites List = "favorites"
	Watchlist List = "watchlist"
)

func (l List) valid() bool { return l == Favorites || l == Watchlist }

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Bio          string    `json:"bio"`
	AvatarColor  string    `json:"avatar_color"`
	CreatedAt    time.Time `json:"created_at"`
}

// AnimeItem is an entry of a favorites or watchlist collection.
type AnimeItem struct {
	AnimeID int       `json:"anime_id"`
	Title   string    `json:"title"`
	Cover   string    `json:"cover"`
	Format  string    `json:"format"`
	AddedAt time.Time `json:"added_at"`
}

type HistoryItem struct {
	AnimeID   int       `json:"anime_id"`
	Title     string    `json:"title"`
	Cover     string    `json:"cover"`
	Episode   int       `json:"episode"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
}

// Store defines all persistence operations of the account store.
type Store interface {
	// Users
	CreateUser(ctx context.Context, p CreateUserParams) (User, error)
	FindUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	// UpdateProfile leaves a field unchanged when its new value is empty.
	UpdateProfile(ctx context.Context, userID, bio, avatarColor string) (User, error)

	// Collections. AddItem returns ErrExists when the anime is already in the
	// list; RemoveItem of a missing anime succeeds.
	AddItem(ctx context.Context, list List, userID string, item AnimeItem) error
	RemoveItem(ctx context.Context, list List, userID string, animeID int) error
	ListItems(ctx context.Context, list List, userID string) ([]AnimeItem, error)

	// History, most recently updated first.
	UpsertHistory(ctx context.Context, userID string, item HistoryItem) error
	ListHistory(ctx context.Context, userID string) ([]HistoryItem, error)

	Ping(ctx context.Context) error
}
