package controllers

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/gottatouchsomegrass/civic-cast/api/models"
	"github.com/gottatouchsomegrass/civic-cast/api/transport"
	"github.com/gottatouchsomegrass/civic-cast/logging"
	"github.com/gottatouchsomegrass/civic-cast/storage"
)

type ElectionController struct {
	elections storage.ElectionStorage
	jwtSecret string
}

func NewElectionController(elections storage.ElectionStorage, jwtSecret string) *ElectionController {
	return &ElectionController{
		elections: elections,
		jwtSecret: jwtSecret,
	}
}

func (c *ElectionController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/elections")

	group.GET("", c.getAll)
	group.GET("/:id", c.get)

	admin := engine.Group("/api/elections", transport.AuthMiddleware(c.jwtSecret), transport.RequireRole(storage.RoleAdmin))
	admin.POST("", c.create)
	admin.PUT("/:id", c.update)
	admin.DELETE("/:id", c.delete)
}

// getAll godoc
// @Summary List all elections
// @Tags elections
// @Produce json
// @Success 200 {array} models.ElectionResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/elections [get]
func (c *ElectionController) getAll(g *gin.Context) {
	elections, err := c.elections.GetAll(g.Request.Context())
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to list elections: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not list elections"})
		return
	}

	// Newest first
	sort.SliceStable(elections, func(i, j int) bool {
		return elections[i].CreatedAt.After(elections[j].CreatedAt)
	})

	now := time.Now()
	responses := make([]models.ElectionResponse, 0, len(elections))
	for _, e := range elections {
		responses = append(responses, models.TransformElectionFromStorage(e, now))
	}
	g.JSON(http.StatusOK, responses)
}

// get godoc
// @Summary Get an election by ID
// @Tags elections
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.ElectionResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/elections/{id} [get]
func (c *ElectionController) get(g *gin.Context) {
	election, err := c.elections.Get(g.Request.Context(), g.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, models.ErrorResponse{Error: "election not found"})
			return
		}
		logging.Log.Errorf("ELECTION: failed to get election: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not get election"})
		return
	}
	g.JSON(http.StatusOK, models.TransformElectionFromStorage(election, time.Now()))
}

// create godoc
// @Security BearerToken
// @Summary Create a new election
// @Tags elections
// @Accept json
// @Produce json
// @Param election body models.ElectionCreateRequest true "Election object"
// @Success 201 {object} models.ElectionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/elections [post]
func (c *ElectionController) create(g *gin.Context) {
	var req models.ElectionCreateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		logging.Log.Errorf("ELECTION: invalid create request: %v", err)
		g.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request"})
		return
	}

	posts, err := validateElectionRequest(req.Title, req.StartDate, req.EndDate, req.Posts)
	if err != nil {
		g.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	id, err := gonanoid.New()
	if err != nil {
		logging.Log.Errorf("ELECTION: failed to generate id: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not create election"})
		return
	}

	election := &storage.Election{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Posts:       posts,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   g.GetString(transport.ContextUserID),
	}

	if err := c.elections.Create(g.Request.Context(), election); err != nil {
		logging.Log.Errorf("ELECTION: failed to create election: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not create election"})
		return
	}

	logging.Log.Infof("ELECTION: created %s (%s)", election.ID, election.Title)
	g.JSON(http.StatusCreated, models.TransformElectionFromStorage(election, time.Now()))
}

// update godoc
// @Security BearerToken
// @Summary Update an election
// @Description Only the creating admin may update an election
// @Tags elections
// @Accept json
// @Produce json
// @Param id path string true "Election ID"
// @Param election body models.ElectionUpdateRequest true "Election object"
// @Success 200 {object} models.ElectionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/elections/{id} [put]
func (c *ElectionController) update(g *gin.Context) {
	existing, err := c.elections.Get(g.Request.Context(), g.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, models.ErrorResponse{Error: "election not found"})
			return
		}
		logging.Log.Errorf("ELECTION: failed to get election: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not update election"})
		return
	}

	if existing.CreatedBy != g.GetString(transport.ContextUserID) {
		g.JSON(http.StatusForbidden, models.ErrorResponse{Error: "only the creating admin may update this election"})
		return
	}

	var req models.ElectionUpdateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		logging.Log.Errorf("ELECTION: invalid update request: %v", err)
		g.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request"})
		return
	}

	posts, err := validateElectionRequest(req.Title, req.StartDate, req.EndDate, req.Posts)
	if err != nil {
		g.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	// Keep existing post ids where the title survives, so vote and candidate
	// references stay intact across edits.
	for i, p := range posts {
		for _, old := range existing.Posts {
			if old.Title == p.Title {
				posts[i].ID = old.ID
			}
		}
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Posts = posts
	existing.StartDate = req.StartDate
	existing.EndDate = req.EndDate

	if err := c.elections.Update(g.Request.Context(), existing); err != nil {
		logging.Log.Errorf("ELECTION: failed to update election: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not update election"})
		return
	}
	g.JSON(http.StatusOK, models.TransformElectionFromStorage(existing, time.Now()))
}

// delete godoc
// @Security BearerToken
// @Summary Delete an election
// @Description Only the creating admin may delete an election
// @Tags elections
// @Produce json
// @Param id path string true "Election ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/elections/{id} [delete]
func (c *ElectionController) delete(g *gin.Context) {
	election, err := c.elections.Get(g.Request.Context(), g.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, models.ErrorResponse{Error: "election not found"})
			return
		}
		logging.Log.Errorf("ELECTION: failed to get election: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not delete election"})
		return
	}

	if election.CreatedBy != g.GetString(transport.ContextUserID) {
		g.JSON(http.StatusForbidden, models.ErrorResponse{Error: "only the creating admin may delete this election"})
		return
	}

	if err := c.elections.Delete(g.Request.Context(), election.ID); err != nil {
		logging.Log.Errorf("ELECTION: failed to delete election: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not delete election"})
		return
	}

	logging.Log.Infof("ELECTION: deleted %s", election.ID)
	g.JSON(http.StatusOK, models.MessageResponse{Message: "election deleted"})
}

func validateElectionRequest(title string, start, end time.Time, posts []models.PostRequest) ([]storage.Post, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return nil, errors.New("startDate must be before endDate")
	}
	if len(posts) == 0 {
		return nil, errors.New("at least one post is required")
	}

	seen := make(map[string]bool, len(posts))
	out := make([]storage.Post, 0, len(posts))
	for _, p := range posts {
		if p.Title == "" {
			return nil, errors.New("post titles must not be empty")
		}
		if seen[p.Title] {
			return nil, errors.New("post titles must be unique within an election")
		}
		seen[p.Title] = true

		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}
		out = append(out, storage.Post{ID: id, Title: p.Title})
	}
	return out, nil
}
