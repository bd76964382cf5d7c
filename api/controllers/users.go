package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/gottatouchsomegrass/civic-cast/api/models"
	"github.com/gottatouchsomegrass/civic-cast/api/transport"
	"github.com/gottatouchsomegrass/civic-cast/logging"
	"github.com/gottatouchsomegrass/civic-cast/storage"
)

type UserController struct {
	users     storage.UserStorage
	elections storage.ElectionStorage
	votes     storage.VoteStorage
	jwtSecret string
}

func NewUserController(users storage.UserStorage, elections storage.ElectionStorage, votes storage.VoteStorage, jwtSecret string) *UserController {
	return &UserController{
		users:     users,
		elections: elections,
		votes:     votes,
		jwtSecret: jwtSecret,
	}
}

func (c *UserController) RegisterRoutes(engine *gin.Engine) {
	engine.POST("/api/register-candidate", c.registerCandidate)

	admin := engine.Group("/api/users", transport.AuthMiddleware(c.jwtSecret), transport.RequireRole(storage.RoleAdmin))
	admin.GET("", c.getAll)
	admin.DELETE("/:id", c.delete)
}

// registerCandidate godoc
// @Summary Register a candidate
// @Description Creates a candidate user bound to an existing election and post
// @Tags users
// @Accept json
// @Produce json
// @Param candidate body models.RegisterCandidateRequest true "Candidate registration"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "Election not found"
// @Failure 409 {object} models.ErrorResponse "Email already registered"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/register-candidate [post]
func (c *UserController) registerCandidate(g *gin.Context) {
	var req models.RegisterCandidateRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request format"})
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" ||
		req.ElectionID == "" || req.ElectionPost == "" || req.ProfilePicture == "" {
		g.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "all fields, including profile picture, are required"})
		return
	}

	election, err := c.elections.Get(g.Request.Context(), req.ElectionID)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, models.ErrorResponse{Error: "election not found"})
			return
		}
		logging.Log.Errorf("USER: failed to get election: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not register candidate"})
		return
	}
	if !election.HasPost(req.ElectionPost) {
		g.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "election has no such post"})
		return
	}

	user, err := c.createUser(g, req.Name, req.Email, req.Password, storage.RoleCandidate)
	if err != nil {
		return // response already written
	}
	user.ProfilePicture = req.ProfilePicture
	user.ElectionID = req.ElectionID
	user.ElectionPost = req.ElectionPost

	if err := c.users.Create(g.Request.Context(), user); err != nil {
		if errors.Is(err, storage.ErrItemAlreadyExists) {
			g.JSON(http.StatusConflict, models.ErrorResponse{Error: "a user with this email already exists"})
			return
		}
		logging.Log.Errorf("USER: failed to create candidate: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not register candidate"})
		return
	}

	logging.Log.Infof("USER: registered candidate %s for election %s post %s", user.ID, req.ElectionID, req.ElectionPost)
	g.JSON(http.StatusCreated, models.TransformUserFromStorage(user))
}

// createUser validates email uniqueness, hashes the password and builds the
// user record. On failure it writes the error response and returns an error.
func (c *UserController) createUser(g *gin.Context, name, email, password, role string) (*storage.User, error) {
	_, err := c.users.GetByEmail(g.Request.Context(), email)
	if err == nil {
		g.JSON(http.StatusConflict, models.ErrorResponse{Error: "a user with this email already exists"})
		return nil, errors.New("email taken")
	}
	if !errors.Is(err, storage.ErrItemNotFound) {
		logging.Log.Errorf("USER: email lookup failed: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not create user"})
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logging.Log.Errorf("USER: failed to hash password: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not create user"})
		return nil, err
	}

	id := newUserID(g)
	if id == "" {
		return nil, errors.New("id generation failed")
	}

	return &storage.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Verified:     true,
		Role:         role,
	}, nil
}

// newUserID generates a user id, writing the 500 response on failure.
func newUserID(g *gin.Context) string {
	id, err := gonanoid.New()
	if err != nil {
		logging.Log.Errorf("USER: failed to generate id: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not create user"})
		return ""
	}
	return id
}

// getAll godoc
// @Security BearerToken
// @Summary List voters and candidates
// @Tags users
// @Produce json
// @Success 200 {object} models.UsersResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/users [get]
func (c *UserController) getAll(g *gin.Context) {
	voters, err := c.users.GetByRole(g.Request.Context(), storage.RoleVoter)
	if err != nil {
		logging.Log.Errorf("USER: failed to list voters: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not list users"})
		return
	}
	candidates, err := c.users.GetByRole(g.Request.Context(), storage.RoleCandidate)
	if err != nil {
		logging.Log.Errorf("USER: failed to list candidates: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not list users"})
		return
	}

	response := models.UsersResponse{
		Voters:     make([]models.UserResponse, 0, len(voters)),
		Candidates: make([]models.UserResponse, 0, len(candidates)),
	}
	for _, u := range voters {
		response.Voters = append(response.Voters, models.TransformUserFromStorage(u))
	}
	for _, u := range candidates {
		response.Candidates = append(response.Candidates, models.TransformUserFromStorage(u))
	}
	g.JSON(http.StatusOK, response)
}

// delete godoc
// @Security BearerToken
// @Summary Delete a user
// @Description Deleting a voter also removes their votes and decrements the affected candidate tallies
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/users/{id} [delete]
func (c *UserController) delete(g *gin.Context) {
	id := g.Param("id")

	user, err := c.users.Get(g.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusNotFound, models.ErrorResponse{Error: "user not found"})
			return
		}
		logging.Log.Errorf("USER: failed to get user: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not delete user"})
		return
	}

	if user.Role == storage.RoleVoter {
		if err := c.cascadeVoterVotes(g, id); err != nil {
			g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not delete user votes"})
			return
		}
	}

	if err := c.users.Delete(g.Request.Context(), id); err != nil {
		logging.Log.Errorf("USER: failed to delete user: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not delete user"})
		return
	}

	logging.Log.Infof("USER: deleted %s (%s)", id, user.Role)
	g.JSON(http.StatusOK, models.MessageResponse{Message: "user deleted"})
}

// cascadeVoterVotes removes the voter's vote records and decrements each
// affected candidate's tally, keeping the cached counters consistent with
// the remaining votes.
func (c *UserController) cascadeVoterVotes(g *gin.Context, voterID string) error {
	votes, err := c.votes.GetByVoter(g.Request.Context(), voterID)
	if err != nil {
		logging.Log.Errorf("USER: failed to load votes for voter %s: %v", voterID, err)
		return err
	}

	for _, v := range votes {
		if err := c.votes.Delete(g.Request.Context(), v.PK, v.SK); err != nil {
			logging.Log.Errorf("USER: failed to delete vote %s/%s: %v", v.PK, v.SK, err)
			return err
		}
		if err := c.users.IncrementVoteCount(g.Request.Context(), v.CandidateID, -1); err != nil {
			// The vote is gone but the tally still counts it. Surface the
			// inconsistency, the recount endpoint repairs it.
			logging.Log.Errorf("USER: tally decrement failed for candidate %s after vote cascade: %v", v.CandidateID, err)
			return err
		}
	}
	return nil
}
