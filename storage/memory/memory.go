// Package memory provides a thread-safe in-memory implementation of storage.Repository.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/boulodrome/clubhouse/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
// Suitable for testing, demos, and single-process use cases; contents are
// lost on restart.
type Repository struct {
	mu      sync.RWMutex
	members map[string]*storage.Member
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{members: make(map[string]*storage.Member)}
}

func cloneMember(m *storage.Member) *storage.Member {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}

func (r *Repository) GetMember(_ context.Context, username string) (*storage.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *Repository) PutMember(_ context.Context, member *storage.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[member.Username] = cloneMember(member)
	return nil
}

func (r *Repository) DeleteMember(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[username]; !ok {
		return storage.ErrNotFound
	}
	delete(r.members, username)
	return nil
}

func (r *Repository) ListMembers(_ context.Context) ([]*storage.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*storage.Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, cloneMember(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
