package models

type CastVoteRequest struct {
	CandidateID string `json:"candidateId"`
	ElectionID  string `json:"electionId"`
	Post        string `json:"post"`
}

type VoteCheckRequest struct {
	ElectionID string `json:"electionId"`
}

// VoteCheckResponse maps post title to whether the caller already voted.
type VoteCheckResponse map[string]bool
