package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/gottatouchsomegrass/civic-cast/api/models"
	"github.com/gottatouchsomegrass/civic-cast/api/transport"
	"github.com/gottatouchsomegrass/civic-cast/logging"
	"github.com/gottatouchsomegrass/civic-cast/storage"
)

type AuthController struct {
	users       storage.UserStorage
	jwtSecret   string
	tokenTTL    time.Duration
	adminSecret string
}

func NewAuthController(users storage.UserStorage, jwtSecret string, tokenTTL time.Duration, adminSecret string) *AuthController {
	return &AuthController{
		users:       users,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		adminSecret: adminSecret,
	}
}

func (c *AuthController) RegisterRoutes(engine *gin.Engine) {
	group := engine.Group("/api/auth")

	group.POST("/signup", c.signup)
	group.POST("/register-admin", c.registerAdmin)
	group.POST("/login", c.login)
}

// signup godoc
// @Summary Register a voter account
// @Tags auth
// @Accept json
// @Produce json
// @Param signup body models.SignupRequest true "Signup payload"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse "Email already registered"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/auth/signup [post]
func (c *AuthController) signup(g *gin.Context) {
	c.register(g, storage.RoleVoter)
}

// registerAdmin godoc
// @Summary Register an admin account
// @Description Requires the admin registration secret in the x-admin-secret header
// @Tags auth
// @Accept json
// @Produce json
// @Param signup body models.SignupRequest true "Signup payload"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/auth/register-admin [post]
func (c *AuthController) registerAdmin(g *gin.Context) {
	secret := g.GetHeader("x-admin-secret")
	if secret == "" || secret != c.adminSecret {
		logging.Log.Warnf("AUTH: unauthorized admin registration attempt")
		g.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}
	c.register(g, storage.RoleAdmin)
}

func (c *AuthController) register(g *gin.Context, role string) {
	var req models.SignupRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request format"})
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		g.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "name, email and password are required"})
		return
	}

	_, err := c.users.GetByEmail(g.Request.Context(), req.Email)
	if err == nil {
		g.JSON(http.StatusConflict, models.ErrorResponse{Error: "a user with this email already exists"})
		return
	}
	if !errors.Is(err, storage.ErrItemNotFound) {
		logging.Log.Errorf("AUTH: email lookup failed: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not create user"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logging.Log.Errorf("AUTH: failed to hash password: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not create user"})
		return
	}

	user := &storage.User{
		ID:           newUserID(g),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Verified:     true,
		Role:         role,
	}
	if user.ID == "" {
		return // response already written
	}

	if err := c.users.Create(g.Request.Context(), user); err != nil {
		// Storage enforces email uniqueness, the lookup above is only an
		// early exit.
		if errors.Is(err, storage.ErrItemAlreadyExists) {
			g.JSON(http.StatusConflict, models.ErrorResponse{Error: "a user with this email already exists"})
			return
		}
		logging.Log.Errorf("AUTH: failed to create user: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not create user"})
		return
	}

	logging.Log.Infof("AUTH: registered %s user %s", role, user.ID)
	g.JSON(http.StatusCreated, models.TransformUserFromStorage(user))
}

// login godoc
// @Summary Log in and receive a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param login body models.LoginRequest true "Login payload"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse "Unknown email or wrong password"
// @Failure 500 {object} models.ErrorResponse
// @Router /api/auth/login [post]
func (c *AuthController) login(g *gin.Context) {
	var req models.LoginRequest
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request format"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := c.users.GetByEmail(g.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrItemNotFound) {
			g.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid email or password"})
			return
		}
		logging.Log.Errorf("AUTH: email lookup failed: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not log in"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		g.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid email or password"})
		return
	}

	token, err := transport.SignToken(c.jwtSecret, user.ID, user.Role, c.tokenTTL)
	if err != nil {
		logging.Log.Errorf("AUTH: failed to sign token: %v", err)
		g.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "could not log in"})
		return
	}

	g.JSON(http.StatusOK, models.LoginResponse{
		Token: token,
		User:  models.TransformUserFromStorage(user),
	})
}
