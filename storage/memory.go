package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// In-memory implementations of the storage interfaces. Used for local runs
// (storage.driver "memory") and by the test suites. They keep the same
// conflict semantics as the DynamoDB implementations, in particular the
// composite-key rejection on duplicate votes.

type MemoryElectionStorage struct {
	mu        sync.RWMutex
	elections map[string]*Election
}

func NewMemoryElectionStorage() *MemoryElectionStorage {
	return &MemoryElectionStorage{elections: make(map[string]*Election)}
}

func (s *MemoryElectionStorage) Get(_ context.Context, id string) (*Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.elections[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	copied := *e
	return &copied, nil
}

func (s *MemoryElectionStorage) GetAll(_ context.Context) ([]*Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Election, 0, len(s.elections))
	for _, e := range s.elections {
		copied := *e
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryElectionStorage) Create(_ context.Context, election *Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elections[election.ID]; ok {
		return ErrItemAlreadyExists
	}
	if election.CreatedAt.IsZero() {
		election.CreatedAt = time.Now().UTC()
	}
	election.UpdatedAt = election.CreatedAt
	copied := *election
	s.elections[election.ID] = &copied
	return nil
}

func (s *MemoryElectionStorage) Update(_ context.Context, election *Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.elections[election.ID]; !ok {
		return ErrItemNotFound
	}
	election.UpdatedAt = time.Now().UTC()
	copied := *election
	s.elections[election.ID] = &copied
	return nil
}

func (s *MemoryElectionStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.elections, id)
	return nil
}

type MemoryUserStorage struct {
	mu     sync.RWMutex
	users  map[string]*User
	emails map[string]string // email -> user id, mirrors the Dynamo marker items
}

func NewMemoryUserStorage() *MemoryUserStorage {
	return &MemoryUserStorage{
		users:  make(map[string]*User),
		emails: make(map[string]string),
	}
}

func (s *MemoryUserStorage) Get(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryUserStorage) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrItemNotFound
}

func (s *MemoryUserStorage) GetAll(_ context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*User) bool { return true }), nil
}

func (s *MemoryUserStorage) GetByRole(_ context.Context, role string) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(u *User) bool { return u.Role == role }), nil
}

func (s *MemoryUserStorage) GetCandidatesByElection(_ context.Context, electionID string) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(u *User) bool {
		return u.Role == RoleCandidate && u.ElectionID == electionID
	}), nil
}

// collect assumes the read lock is held.
func (s *MemoryUserStorage) collect(match func(*User) bool) []*User {
	out := make([]*User, 0)
	for _, u := range s.users {
		if match(u) {
			copied := *u
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryUserStorage) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return ErrItemAlreadyExists
	}
	if user.Email != "" {
		if _, ok := s.emails[user.Email]; ok {
			return ErrItemAlreadyExists
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt
	copied := *user
	s.users[user.ID] = &copied
	if user.Email != "" {
		s.emails[user.Email] = user.ID
	}
	return nil
}

func (s *MemoryUserStorage) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		delete(s.emails, u.Email)
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryUserStorage) IncrementVoteCount(_ context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrItemNotFound
	}
	u.VoteCount += delta
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryUserStorage) SetVoteCount(_ context.Context, id string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrItemNotFound
	}
	u.VoteCount = count
	u.UpdatedAt = time.Now().UTC()
	return nil
}

type memoryVoteKey struct {
	pk string
	sk string
}

type MemoryVoteStorage struct {
	mu    sync.RWMutex
	votes map[memoryVoteKey]*Vote
}

func NewMemoryVoteStorage() *MemoryVoteStorage {
	return &MemoryVoteStorage{votes: make(map[memoryVoteKey]*Vote)}
}

func (s *MemoryVoteStorage) Create(_ context.Context, vote *Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memoryVoteKey{pk: vote.PK, sk: vote.SK}
	if _, ok := s.votes[key]; ok {
		return ErrVoteAlreadyExists
	}
	copied := *vote
	s.votes[key] = &copied
	return nil
}

func (s *MemoryVoteStorage) GetAll(_ context.Context) ([]*Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*Vote) bool { return true }), nil
}

func (s *MemoryVoteStorage) GetByVoterAndElection(_ context.Context, voterID, electionID string) ([]*Vote, error) {
	pk := VoteKey(voterID, electionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(v *Vote) bool { return v.PK == pk }), nil
}

func (s *MemoryVoteStorage) GetByElection(_ context.Context, electionID string) ([]*Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(v *Vote) bool { return v.ElectionID == electionID }), nil
}

func (s *MemoryVoteStorage) GetByVoter(_ context.Context, voterID string) ([]*Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(v *Vote) bool { return v.VoterID == voterID }), nil
}

// collect assumes the read lock is held.
func (s *MemoryVoteStorage) collect(match func(*Vote) bool) []*Vote {
	out := make([]*Vote, 0)
	for _, v := range s.votes {
		if match(v) {
			copied := *v
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (s *MemoryVoteStorage) Delete(_ context.Context, pk, sk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.votes, memoryVoteKey{pk: pk, sk: sk})
	return nil
}
