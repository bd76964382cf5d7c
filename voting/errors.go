package voting

import "errors"

var (
	ErrValidation        = errors.New("missing or malformed vote fields")
	ErrElectionNotFound  = errors.New("election not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrNotStarted        = errors.New("election has not started yet")
	ErrEnded             = errors.New("election has already ended")
	ErrDuplicateVote     = errors.New("vote already cast for this post")
	ErrTallyInconsistent = errors.New("vote recorded but tally update failed")
)
