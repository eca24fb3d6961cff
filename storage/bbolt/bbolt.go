// Package bbolt provides a BBolt-backed storage repository.
package bbolt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boulodrome/clubhouse/storage"
	"go.etcd.io/bbolt"
)

var membersBucket = []byte("members")

// Store implements storage.Repository backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given BBolt database.
func NewRepository(db *bbolt.DB) *Store {
	return &Store{db: db}
}

// NewRepositoryFromFile opens a BBolt database at the given path and returns a new Repository.
func NewRepositoryFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewRepository(db), nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetMember(_ context.Context, username string) (*storage.Member, error) {
	var member storage.Member
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(membersBucket)
		if b == nil {
			return fmt.Errorf("%s: %w", username, storage.ErrNotFound)
		}
		data := b.Get([]byte(username))
		if data == nil {
			return fmt.Errorf("%s: %w", username, storage.ErrNotFound)
		}
		return json.Unmarshal(data, &member)
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Store) PutMember(_ context.Context, member *storage.Member) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(membersBucket)
		if err != nil {
			return err
		}
		data, err := json.Marshal(member)
		if err != nil {
			return err
		}
		return b.Put([]byte(member.Username), data)
	})
}

func (s *Store) DeleteMember(_ context.Context, username string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(membersBucket)
		if b == nil {
			return fmt.Errorf("%s: %w", username, storage.ErrNotFound)
		}
		if b.Get([]byte(username)) == nil {
			return fmt.Errorf("%s: %w", username, storage.ErrNotFound)
		}
		return b.Delete([]byte(username))
	})
}

func (s *Store) ListMembers(_ context.Context) ([]*storage.Member, error) {
	var members []*storage.Member
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(membersBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var member storage.Member
			if err := json.Unmarshal(v, &member); err != nil {
				return err
			}
			members = append(members, &member)
			return nil
		})
	})
	return members, err
}
