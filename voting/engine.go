package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gottatouchsomegrass/civic-cast/logging"
	"github.com/gottatouchsomegrass/civic-cast/storage"
)

// Engine holds the rules for accepting, recording and tallying votes.
// The duplicate-vote guard lives in the storage layer's conditional write;
// the pre-checks here only exist so read paths can report eligibility
// without attempting a write.
type Engine struct {
	elections storage.ElectionStorage
	users     storage.UserStorage
	votes     storage.VoteStorage
	now       func() time.Time
}

func NewEngine(elections storage.ElectionStorage, users storage.UserStorage, votes storage.VoteStorage) *Engine {
	return &Engine{
		elections: elections,
		users:     users,
		votes:     votes,
		now:       time.Now,
	}
}

type VoteRequest struct {
	VoterID     string
	CandidateID string
	ElectionID  string
	Post        string
}

func (r VoteRequest) validate() error {
	if r.VoterID == "" || r.CandidateID == "" || r.ElectionID == "" || r.Post == "" {
		return fmt.Errorf("%w: voterId, candidateId, electionId and post are required", ErrValidation)
	}
	return nil
}

// Admit decides whether a vote attempt may proceed. It has no side effects,
// so callers can use it to render eligibility without writing anything.
func (e *Engine) Admit(ctx context.Context, req VoteRequest) error {
	if err := req.validate(); err != nil {
		return err
	}

	election, err := e.elections.Get(ctx, req.ElectionID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return ErrElectionNotFound
		}
		return err
	}
	if !election.HasPost(req.Post) {
		return fmt.Errorf("%w: election has no post %q", ErrValidation, req.Post)
	}

	candidate, err := e.users.Get(ctx, req.CandidateID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return ErrCandidateNotFound
		}
		return err
	}
	if candidate.Role != storage.RoleCandidate ||
		candidate.ElectionID != req.ElectionID ||
		candidate.ElectionPost != req.Post {
		return fmt.Errorf("%w: candidate is not running for post %q in this election", ErrValidation, req.Post)
	}

	now := e.now()
	if now.Before(election.StartDate) {
		return ErrNotStarted
	}
	if now.After(election.EndDate) {
		return ErrEnded
	}

	// Early exit only. The conditional write in Cast stays authoritative
	// under concurrent attempts.
	voted, err := e.VotedPosts(ctx, req.VoterID, req.ElectionID)
	if err != nil {
		return err
	}
	if voted[req.Post] {
		return ErrDuplicateVote
	}

	return nil
}

// Cast durably records a vote exactly once and bumps the candidate tally.
// The tally increment only runs after the insert succeeded, so the counter
// can never exceed the number of persisted votes.
func (e *Engine) Cast(ctx context.Context, req VoteRequest) error {
	if err := e.Admit(ctx, req); err != nil {
		return err
	}

	vote := &storage.Vote{
		PK:          storage.VoteKey(req.VoterID, req.ElectionID),
		SK:          req.Post,
		VoterID:     req.VoterID,
		CandidateID: req.CandidateID,
		ElectionID:  req.ElectionID,
		Post:        req.Post,
		Timestamp:   e.now().UTC(),
	}
	if err := e.votes.Create(ctx, vote); err != nil {
		if errors.Is(err, storage.ErrVoteAlreadyExists) {
			return ErrDuplicateVote
		}
		return err
	}

	if err := e.users.IncrementVoteCount(ctx, req.CandidateID, 1); err != nil {
		// The vote is persisted but the cached tally is now behind.
		// RecountTallies repairs this.
		logging.Log.Errorf("VOTE: tally increment failed after insert, candidate=%s election=%s: %v",
			req.CandidateID, req.ElectionID, err)
		return fmt.Errorf("%w: %v", ErrTallyInconsistent, err)
	}

	return nil
}

// VotedPosts reports which posts of an election the voter has already voted
// on, read from the vote records rather than any denormalized cache.
func (e *Engine) VotedPosts(ctx context.Context, voterID, electionID string) (map[string]bool, error) {
	if voterID == "" || electionID == "" {
		return nil, fmt.Errorf("%w: voterId and electionId are required", ErrValidation)
	}

	votes, err := e.votes.GetByVoterAndElection(ctx, voterID, electionID)
	if err != nil {
		return nil, err
	}

	voted := make(map[string]bool, len(votes))
	for _, v := range votes {
		voted[v.Post] = true
	}
	return voted, nil
}

// RecountTallies rebuilds every candidate tally of an election from the vote
// records and overwrites the cached counters. Repair path for drift after
// partial failures.
func (e *Engine) RecountTallies(ctx context.Context, electionID string) (map[string]int, error) {
	if electionID == "" {
		return nil, fmt.Errorf("%w: electionId is required", ErrValidation)
	}
	if _, err := e.elections.Get(ctx, electionID); err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, ErrElectionNotFound
		}
		return nil, err
	}

	votes, err := e.votes.GetByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, v := range votes {
		counts[v.CandidateID]++
	}

	candidates, err := e.users.GetCandidatesByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}

	tallies := make(map[string]int, len(candidates))
	for _, c := range candidates {
		count := counts[c.ID]
		if err := e.users.SetVoteCount(ctx, c.ID, count); err != nil {
			return nil, err
		}
		if count != c.VoteCount {
			logging.Log.Warnf("VOTE: recount corrected tally for candidate %s: %d -> %d", c.ID, c.VoteCount, count)
		}
		tallies[c.ID] = count
	}
	return tallies, nil
}
