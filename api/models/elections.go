package models

import (
	"time"

	"github.com/gottatouchsomegrass/civic-cast/storage"
)

type PostRequest struct {
	Title string `json:"title"`
}

type ElectionCreateRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Posts       []PostRequest `json:"posts"`
	StartDate   time.Time     `json:"startDate"`
	EndDate     time.Time     `json:"endDate"`
}

type ElectionUpdateRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Posts       []PostRequest `json:"posts"`
	StartDate   time.Time     `json:"startDate"`
	EndDate     time.Time     `json:"endDate"`
}

type PostResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ElectionResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Posts       []PostResponse `json:"posts"`
	StartDate   time.Time      `json:"startDate"`
	EndDate     time.Time      `json:"endDate"`
	Status      string         `json:"status"`
	CreatedBy   string         `json:"createdBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func TransformElectionFromStorage(e *storage.Election, now time.Time) ElectionResponse {
	posts := make([]PostResponse, 0, len(e.Posts))
	for _, p := range e.Posts {
		posts = append(posts, PostResponse{ID: p.ID, Title: p.Title})
	}
	return ElectionResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Posts:       posts,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Status:      e.Status(now),
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
