package voting

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gottatouchsomegrass/civic-cast/storage"
)

type CandidateResult struct {
	CandidateID    string
	Name           string
	ProfilePicture string
	VoteCount      int
	Percentage     float64
}

type PostResult struct {
	PostID     string
	Title      string
	TotalVotes int
	Candidates []CandidateResult
}

// Results computes the per-post leaderboards of an election from the cached
// candidate tallies. Posts follow the election's post order; candidates are
// sorted by descending vote count with registration order breaking ties.
func (e *Engine) Results(ctx context.Context, electionID string) ([]PostResult, error) {
	if electionID == "" {
		return nil, fmt.Errorf("%w: electionId is required", ErrValidation)
	}

	election, err := e.elections.Get(ctx, electionID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			return nil, ErrElectionNotFound
		}
		return nil, err
	}

	candidates, err := e.users.GetCandidatesByElection(ctx, electionID)
	if err != nil {
		return nil, err
	}

	// Scan-backed storage has no ordering guarantee, so establish
	// registration order here before ranking.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	byPost := make(map[string][]*storage.User)
	for _, c := range candidates {
		byPost[c.ElectionPost] = append(byPost[c.ElectionPost], c)
	}

	results := make([]PostResult, 0, len(election.Posts))
	for _, post := range election.Posts {
		postCandidates := byPost[post.Title]

		total := 0
		for _, c := range postCandidates {
			total += c.VoteCount
		}

		sort.SliceStable(postCandidates, func(i, j int) bool {
			return postCandidates[i].VoteCount > postCandidates[j].VoteCount
		})

		entries := make([]CandidateResult, 0, len(postCandidates))
		for _, c := range postCandidates {
			percentage := 0.0
			if total > 0 {
				percentage = float64(c.VoteCount) / float64(total) * 100
			}
			entries = append(entries, CandidateResult{
				CandidateID:    c.ID,
				Name:           c.Name,
				ProfilePicture: c.ProfilePicture,
				VoteCount:      c.VoteCount,
				Percentage:     percentage,
			})
		}

		results = append(results, PostResult{
			PostID:     post.ID,
			Title:      post.Title,
			TotalVotes: total,
			Candidates: entries,
		})
	}

	return results, nil
}
