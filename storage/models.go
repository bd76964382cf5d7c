package storage

import (
	"fmt"
	"time"
)

const (
	RoleAdmin     = "admin"
	RoleVoter     = "voter"
	RoleCandidate = "candidate"
)

const (
	ElectionStatusPending   = "pending"
	ElectionStatusActive    = "active"
	ElectionStatusCompleted = "completed"
)

type Post struct {
	ID    string `dynamodbav:"ID"`
	Title string `dynamodbav:"Title"`
}

type Election struct {
	ID          string    `dynamodbav:"PK"`
	Title       string    `dynamodbav:"Title"`
	Description string    `dynamodbav:"Description"`
	Posts       []Post    `dynamodbav:"Posts"`
	StartDate   time.Time `dynamodbav:"StartDate"`
	EndDate     time.Time `dynamodbav:"EndDate"`
	CreatedBy   string    `dynamodbav:"CreatedBy"`
	CreatedAt   time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt   time.Time `dynamodbav:"UpdatedAt"`
}

// Status is derived from the clock on every read, never stored.
func (e *Election) Status(now time.Time) string {
	if now.Before(e.StartDate) {
		return ElectionStatusPending
	}
	if now.After(e.EndDate) {
		return ElectionStatusCompleted
	}
	return ElectionStatusActive
}

func (e *Election) HasPost(title string) bool {
	for _, p := range e.Posts {
		if p.Title == title {
			return true
		}
	}
	return false
}

type User struct {
	ID           string `dynamodbav:"PK"`
	Name         string `dynamodbav:"Name"`
	Email        string `dynamodbav:"Email"`
	PasswordHash string `dynamodbav:"PasswordHash"`
	Verified     bool   `dynamodbav:"Verified"`
	Role         string `dynamodbav:"Role"`

	// Candidate-only fields
	ProfilePicture string `dynamodbav:"ProfilePicture,omitempty"`
	ElectionID     string `dynamodbav:"ElectionID,omitempty"`
	ElectionPost   string `dynamodbav:"ElectionPost,omitempty"`
	VoteCount      int    `dynamodbav:"VoteCount"`

	CreatedAt time.Time `dynamodbav:"CreatedAt"`
	UpdatedAt time.Time `dynamodbav:"UpdatedAt"`
}

type Vote struct {
	PK          string    `dynamodbav:"PK"` // composite of voter and election, see VoteKey
	SK          string    `dynamodbav:"SK"` // post title
	VoterID     string    `dynamodbav:"VoterID"`
	CandidateID string    `dynamodbav:"CandidateID"`
	ElectionID  string    `dynamodbav:"ElectionID"`
	Post        string    `dynamodbav:"Post"`
	Timestamp   time.Time `dynamodbav:"Timestamp"`
}

// VoteKey builds the partition key that, together with the post title sort
// key, enforces at most one vote per (voter, election, post).
func VoteKey(voterID, electionID string) string {
	return fmt.Sprintf("voter#%s#election#%s", voterID, electionID)
}
