package models

import "github.com/gottatouchsomegrass/civic-cast/voting"

type CandidateResultResponse struct {
	CandidateID    string  `json:"candidateId"`
	Name           string  `json:"name"`
	ProfilePicture string  `json:"profilePicture,omitempty"`
	VoteCount      int     `json:"voteCount"`
	Percentage     float64 `json:"percentage"`
}

type PostResultResponse struct {
	PostID     string                    `json:"postId"`
	Title      string                    `json:"title"`
	TotalVotes int                       `json:"totalVotes"`
	Candidates []CandidateResultResponse `json:"candidates"`
}

type ElectionResultsResponse struct {
	ElectionID string               `json:"electionId"`
	Posts      []PostResultResponse `json:"posts"`
}

type RecountResponse struct {
	Message string         `json:"message"`
	Tallies map[string]int `json:"tallies"`
}

func TransformResultsFromEngine(electionID string, results []voting.PostResult) ElectionResultsResponse {
	posts := make([]PostResultResponse, 0, len(results))
	for _, pr := range results {
		candidates := make([]CandidateResultResponse, 0, len(pr.Candidates))
		for _, cr := range pr.Candidates {
			candidates = append(candidates, CandidateResultResponse{
				CandidateID:    cr.CandidateID,
				Name:           cr.Name,
				ProfilePicture: cr.ProfilePicture,
				VoteCount:      cr.VoteCount,
				Percentage:     cr.Percentage,
			})
		}
		posts = append(posts, PostResultResponse{
			PostID:     pr.PostID,
			Title:      pr.Title,
			TotalVotes: pr.TotalVotes,
			Candidates: candidates,
		})
	}
	return ElectionResultsResponse{ElectionID: electionID, Posts: posts}
}
