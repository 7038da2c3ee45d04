package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const pgSchema = `
CREATE TABLE IF NOT EXISTS dj_profiles (
	id               text PRIMARY KEY,
	stage_name       text NOT NULL,
	full_name        text NOT NULL,
	city             text NOT NULL DEFAULT '',
	state            text NOT NULL DEFAULT '',
	phone_number     text NOT NULL DEFAULT '',
	experience_level text NOT NULL DEFAULT '',
	age              text NOT NULL,
	email            text NOT NULL,
	social_media     text NOT NULL DEFAULT '',
	heard_about      text NOT NULL DEFAULT '',
	stage_name_lower text NOT NULL,
	email_lower      text NOT NULL,
	created_at       timestamptz NOT NULL,
	updated_at       timestamptz NOT NULL,
	CONSTRAINT dj_profiles_key UNIQUE (stage_name_lower, email_lower)
);
CREATE INDEX IF NOT EXISTS dj_profiles_created_at_idx ON dj_profiles (created_at DESC);
`

const pgColumns = `id, stage_name, full_name, city, state, phone_number, experience_level,
	age, email, social_media, heard_about, created_at, updated_at`

// PostgresStore implements Store on PostgreSQL. Uniqueness rests on the
// dj_profiles_key constraint.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore opens a pool for databaseURL and creates the schema if
// it does not exist.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PostgresStore{db: pool}, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(
		&r.ID, &r.StageName, &r.FullName, &r.City, &r.State, &r.PhoneNumber,
		&r.ExperienceLevel, &r.Age, &r.Email, &r.SocialMedia, &r.HeardAbout,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (s *PostgresStore) Insert(ctx context.Context, r *Record) (*Record, error) {
	k := r.Key()
	rec, err := scanRecord(s.db.QueryRow(ctx, `
		INSERT INTO dj_profiles (id, stage_name, full_name, city, state, phone_number,
			experience_level, age, email, social_media, heard_about,
			stage_name_lower, email_lower, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+pgColumns,
		uuid.NewString(), r.StageName, r.FullName, r.City, r.State, r.PhoneNumber,
		r.ExperienceLevel, r.Age, r.Email, r.SocialMedia, r.HeardAbout,
		k.StageName, k.Email, r.CreatedAt, r.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, duplicateOf(r)
		}
		return nil, fmt.Errorf("postgres insert: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Replace(ctx context.Context, id string, r *Record) (*Record, error) {
	k := r.Key()
	rec, err := scanRecord(s.db.QueryRow(ctx, `
		UPDATE dj_profiles SET
			stage_name = $2, full_name = $3, city = $4, state = $5, phone_number = $6,
			experience_level = $7, age = $8, email = $9, social_media = $10,
			heard_about = $11, stage_name_lower = $12, email_lower = $13, updated_at = $14
		WHERE id = $1
		RETURNING `+pgColumns,
		id, r.StageName, r.FullName, r.City, r.State, r.PhoneNumber,
		r.ExperienceLevel, r.Age, r.Email, r.SocialMedia, r.HeardAbout,
		k.StageName, k.Email, r.UpdatedAt,
	))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case isUniqueViolation(err):
		return nil, duplicateOf(r)
	case err != nil:
		return nil, fmt.Errorf("postgres replace: %w", err)
	}
	return rec, nil
}

// Upsert relies on ON CONFLICT; xmax is zero only for a freshly inserted row.
func (s *PostgresStore) Upsert(ctx context.Context, r *Record) (*Record, UpsertResult, error) {
	k := r.Key()
	var (
		rec      Record
		inserted bool
	)
	err := s.db.QueryRow(ctx, `
		INSERT INTO dj_profiles (id, stage_name, full_name, city, state, phone_number,
			experience_level, age, email, social_media, heard_about,
			stage_name_lower, email_lower, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (stage_name_lower, email_lower) DO UPDATE SET
			stage_name = EXCLUDED.stage_name,
			full_name = EXCLUDED.full_name,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			phone_number = EXCLUDED.phone_number,
			experience_level = EXCLUDED.experience_level,
			age = EXCLUDED.age,
			email = EXCLUDED.email,
			social_media = EXCLUDED.social_media,
			heard_about = EXCLUDED.heard_about,
			updated_at = EXCLUDED.updated_at
		RETURNING `+pgColumns+`, (xmax = 0) AS inserted`,
		uuid.NewString(), r.StageName, r.FullName, r.City, r.State, r.PhoneNumber,
		r.ExperienceLevel, r.Age, r.Email, r.SocialMedia, r.HeardAbout,
		k.StageName, k.Email, r.CreatedAt, r.UpdatedAt,
	).Scan(
		&rec.ID, &rec.StageName, &rec.FullName, &rec.City, &rec.State, &rec.PhoneNumber,
		&rec.ExperienceLevel, &rec.Age, &rec.Email, &rec.SocialMedia, &rec.HeardAbout,
		&rec.CreatedAt, &rec.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres upsert: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	if inserted {
		return &rec, Created, nil
	}
	return &rec, Updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM dj_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, `SELECT `+pgColumns+` FROM dj_profiles WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.Query(ctx, `SELECT `+pgColumns+` FROM dj_profiles ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	s.db.Close()
	return nil
}

var _ Store = (*PostgresStore)(nil)
