package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gottatouchsomegrass/civic-cast/logging"
)

const testSecret = "transport-test-secret"

func protectedRouter(role string) *gin.Engine {
	logging.Log = logrus.New()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handlers := []gin.HandlerFunc{AuthMiddleware(testSecret)}
	if role != "" {
		handlers = append(handlers, RequireRole(role))
	}
	group := router.Group("/protected", handlers...)
	group.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userID": c.GetString(ContextUserID),
			"role":   c.GetString(ContextRole),
		})
	})
	return router
}

func get(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := SignToken(testSecret, "u1", "voter", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "voter", claims.Role)

	_, err = ParseToken("wrong-secret", token)
	assert.Error(t, err)
}

// Tokens are HS256 only; anything signed with another method is rejected
// even when the key would verify.
func TestParseTokenRejectsOtherSigningMethods(t *testing.T) {
	claims := &Claims{
		UserID: "u1",
		Role:   "voter",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	router := protectedRouter("")

	t.Run("missing header", func(t *testing.T) {
		res := get(router, "")
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		res := get(router, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := SignToken(testSecret, "u1", "voter", -time.Minute)
		require.NoError(t, err)
		res := get(router, token)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("valid token passes identity through", func(t *testing.T) {
		token, err := SignToken(testSecret, "u1", "voter", time.Hour)
		require.NoError(t, err)
		res := get(router, token)
		require.Equal(t, http.StatusOK, res.Code)
		assert.JSONEq(t, `{"userID":"u1","role":"voter"}`, res.Body.String())
	})
}

func TestRequireRole(t *testing.T) {
	router := protectedRouter("admin")

	t.Run("wrong role", func(t *testing.T) {
		token, err := SignToken(testSecret, "u1", "voter", time.Hour)
		require.NoError(t, err)
		res := get(router, token)
		assert.Equal(t, http.StatusForbidden, res.Code)
	})

	t.Run("matching role", func(t *testing.T) {
		token, err := SignToken(testSecret, "a1", "admin", time.Hour)
		require.NoError(t, err)
		res := get(router, token)
		assert.Equal(t, http.StatusOK, res.Code)
	})
}
