package models

import (
	"time"

	"github.com/gottatouchsomegrass/civic-cast/storage"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type RegisterCandidateRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ElectionID     string `json:"electionId"`
	ElectionPost   string `json:"electionPost"`
	ProfilePicture string `json:"profilePicture"`
}

type UserResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Verified       bool      `json:"verified"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	ElectionID     string    `json:"electionId,omitempty"`
	ElectionPost   string    `json:"electionPost,omitempty"`
	VoteCount      int       `json:"voteCount"`
	CreatedAt      time.Time `json:"createdAt"`
}

type UsersResponse struct {
	Voters     []UserResponse `json:"voters"`
	Candidates []UserResponse `json:"candidates"`
}

func TransformUserFromStorage(u *storage.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		Verified:       u.Verified,
		ProfilePicture: u.ProfilePicture,
		ElectionID:     u.ElectionID,
		ElectionPost:   u.ElectionPost,
		VoteCount:      u.VoteCount,
		CreatedAt:      u.CreatedAt,
	}
}
