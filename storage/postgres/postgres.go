// Package postgres implements storage.Repository backed by PostgreSQL.
//
// Members are stored in a single table keyed by normalized username, the
// same key space used by the BBolt and in-memory backends. Fields are
// individual columns rather than a JSON blob so that role and email can be
// inspected with plain SQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boulodrome/clubhouse/storage"
)

// Store implements storage.Repository backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given pgx connection pool.
func NewRepository(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewRepositoryFromDSN creates a connection pool from a DSN string, ensures
// the schema exists, and returns a new Repository.
func NewRepositoryFromDSN(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewRepository(pool), nil
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) GetMember(ctx context.Context, username string) (*storage.Member, error) {
	var m storage.Member
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, role, password_hash, created_at
		 FROM members WHERE username = $1`,
		username).Scan(
		&m.ID, &m.Username, &m.Email, &m.Role, &m.PasswordHash, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) PutMember(ctx context.Context, member *storage.Member) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO members (id, username, email, role, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (username)
		 DO UPDATE SET email = $3, role = $4, password_hash = $5`,
		member.ID, member.Username, member.Email, member.Role, member.PasswordHash, member.CreatedAt)
	return err
}

func (s *Store) DeleteMember(ctx context.Context, username string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM members WHERE username = $1`, username)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", username, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ListMembers(ctx context.Context) ([]*storage.Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, email, role, password_hash, created_at
		 FROM members ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*storage.Member
	for rows.Next() {
		var m storage.Member
		if err := rows.Scan(&m.ID, &m.Username, &m.Email, &m.Role, &m.PasswordHash, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}
