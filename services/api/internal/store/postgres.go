package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            uuid PRIMARY KEY,
    username      text NOT NULL UNIQUE,
    email         text NOT NULL,
    password_hash text NOT NULL,
    bio           text NOT NULL DEFAULT 'Apenas um fã de animes.',
    avatar_color  text NOT NULL DEFAULT 'purple',
    created_at    timestamptz NOT NULL DEFAULT now()
);
ALTER TABLE users DROP CONSTRAINT IF EXISTS users_email_key;
CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email));
CREATE TABLE IF NOT EXISTS favorites (
    user_id  uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    anime_id integer NOT NULL,
    title    text NOT NULL,
    cover    text NOT NULL,
    format   text NOT NULL DEFAULT 'TV',
    added_at timestamptz NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, anime_id)
);
CREATE TABLE IF NOT EXISTS watchlist (
    user_id  uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    anime_id integer NOT NULL,
    title    text NOT NULL,
    cover    text NOT NULL,
    format   text NOT NULL DEFAULT 'TV',
    added_at timestamptz NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, anime_id)
);
CREATE TABLE IF NOT EXISTS history (
    user_id    uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    anime_id   integer NOT NULL,
    title      text NOT NULL,
    cover      text NOT NULL,
    episode    integer NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, anime_id)
);
CREATE INDEX IF NOT EXISTS history_user_updated_idx ON history (user_id, updated_at DESC);
`

// PostgresStore is the production Postgres-backed implementation.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the tables when they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ── Users ──────────────────────────────────────────────────────────────────

const userColumns = `id::text, username, email, password_hash, bio, avatar_color, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Bio, &u.AvatarColor, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	q := `
INSERT INTO users (id, username, email, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns + `;`
	u, err := scanUser(s.db.QueryRow(ctx, q, uuid.New(), p.Username, p.Email, p.PasswordHash))
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrConflict
		}
		return User{}, err
	}
	return u, nil
}

func (s *PostgresStore) FindUserByUsername(ctx context.Context, username string) (User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1 LIMIT 1;`
	return scanUser(s.db.QueryRow(ctx, q, username))
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	return scanUser(s.db.QueryRow(ctx, q, uid))
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, userID, bio, avatarColor string) (User, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return User{}, ErrNotFound
	}
	q := `
UPDATE users
SET bio = COALESCE(NULLIF($2, ''), bio),
    avatar_color = COALESCE(NULLIF($3, ''), avatar_color)
WHERE id = $1
RETURNING ` + userColumns + `;`
	return scanUser(s.db.QueryRow(ctx, q, uid, bio, avatarColor))
}

// ── Collections ────────────────────────────────────────────────────────────

func (s *PostgresStore) AddItem(ctx context.Context, list List, userID string, item AnimeItem) error {
	if !list.valid() {
		return fmt.Errorf("store: unknown list %q", list)
	}
	if item.Format == "" {
		item.Format = DefaultFormat
	}
	// Table name comes from the closed List set, never from input.
	q := `
INSERT INTO ` + string(list) + ` (user_id, anime_id, title, cover, format)
VALUES ($1::uuid, $2, $3, $4, $5)
ON CONFLICT (user_id, anime_id) DO NOTHING;`
	tag, err := s.db.Exec(ctx, q, userID, item.AnimeID, item.Title, item.Cover, item.Format)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

func (s *PostgresStore) RemoveItem(ctx context.Context, list List, userID string, animeID int) error {
	if !list.valid() {
		return fmt.Errorf("store: unknown list %q", list)
	}
	q := `DELETE FROM ` + string(list) + ` WHERE user_id = $1::uuid AND anime_id = $2;`
	_, err := s.db.Exec(ctx, q, userID, animeID)
	return err
}

func (s *PostgresStore) ListItems(ctx context.Context, list List, userID string) ([]AnimeItem, error) {
	if !list.valid() {
		return nil, fmt.Errorf("store: unknown list %q", list)
	}
	q := `SELECT anime_id, title, cover, format, added_at FROM ` + string(list) + ` WHERE user_id = $1::uuid ORDER BY added_at;`
	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AnimeItem, error) {
		var it AnimeItem
		err := row.Scan(&it.AnimeID, &it.Title, &it.Cover, &it.Format, &it.AddedAt)
		return it, err
	})
}

// ── History ────────────────────────────────────────────────────────────────

func (s *PostgresStore) UpsertHistory(ctx context.Context, userID string, item HistoryItem) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO history (user_id, anime_id, title, cover, episode, updated_at)
VALUES ($1::uuid, $2, $3, $4, $5, now())
ON CONFLICT (user_id, anime_id) DO UPDATE
SET title = EXCLUDED.title, cover = EXCLUDED.cover, episode = EXCLUDED.episode, updated_at = EXCLUDED.updated_at;`,
		userID, item.AnimeID, item.Title, item.Cover, item.Episode)
	return err
}

func (s *PostgresStore) ListHistory(ctx context.Context, userID string) ([]HistoryItem, error) {
	rows, err := s.db.Query(ctx, `
SELECT anime_id, title, cover, episode, updated_at
FROM history WHERE user_id = $1::uuid
ORDER BY updated_at DESC;`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (HistoryItem, error) {
		var it HistoryItem
		err := row.Scan(&it.AnimeID, &it.Title, &it.Cover, &it.Episode, &it.UpdatedAt)
		return it, err
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
