package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/api/middleware/auth"
	"github.com/kekopoly/dentetsu/internal/db/mongodb"
	"github.com/kekopoly/dentetsu/internal/models"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) CreateUser(ctx context.Context, user *models.User) error {
	err := m.Called(ctx, user).Error(0)
	if err == nil {
		user.ID = primitive.NewObjectID()
	}
	return err
}

func (m *mockUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUsers) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func newAuthServer(users UserStore) *echo.Echo {
	tokens := TokenConfig{Secret: testSecret, Expiration: 1}
	h := NewAuthHandler(tokens, users, zap.NewNop().Sugar())
	u := NewUserHandler(users, zap.NewNop().Sugar())
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	e.POST("/api/v1/auth/register", h.Register)
	e.POST("/api/v1/auth/login", h.Login)
	e.GET("/api/v1/auth/refresh-token", h.RefreshToken, auth.JWTMiddleware(testSecret))
	e.GET("/api/v1/user/profile", u.GetProfile, auth.JWTMiddleware(testSecret))
	return e
}

func TestRegister(t *testing.T) {
	users := new(mockUsers)
	users.On("GetUserByEmail", mock.Anything, "a@example.com").Return(nil, mongodb.ErrUserNotFound)
	users.On("GetUserByUsername", mock.Anything, "alice").Return(nil, mongodb.ErrUserNotFound)
	users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "alice" && u.CheckPassword("password1")
	})).Return(nil)
	e := newAuthServer(users)

	rec := do(e, http.MethodPost, "/api/v1/auth/register", `{"email": "a@example.com", "username": "alice", "password": "password1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := auth.ParseToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
	assert.Equal(t, "alice", resp.Username)
	users.AssertExpectations(t)
}

func TestRegisterConflicts(t *testing.T) {
	users := new(mockUsers)
	users.On("GetUserByEmail", mock.Anything, "taken@example.com").Return(&models.User{}, nil)
	users.On("GetUserByEmail", mock.Anything, "b@example.com").Return(nil, mongodb.ErrUserNotFound)
	users.On("GetUserByUsername", mock.Anything, "bob").Return(nil, mongodb.ErrUserNotFound)
	users.On("CreateUser", mock.Anything, mock.Anything).Return(mongodb.ErrUserExists)
	e := newAuthServer(users)

	rec := do(e, http.MethodPost, "/api/v1/auth/register", `{"email": "taken@example.com", "username": "alice", "password": "password1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/auth/register", `{"email": "b@example.com", "username": "bob", "password": "password1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	users := new(mockUsers)
	e := newAuthServer(users)

	rec := do(e, http.MethodPost, "/api/v1/auth/register", `{"email": "not-an-email", "username": "al", "password": "short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	user, err := models.NewUser("alice", "a@example.com", "password1", time.Now())
	require.NoError(t, err)
	user.ID = primitive.NewObjectID()

	users := new(mockUsers)
	users.On("GetUserByEmail", mock.Anything, "a@example.com").Return(user, nil)
	users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, mongodb.ErrUserNotFound)
	users.On("GetUserByEmail", mock.Anything, "down@example.com").Return(nil, errors.New("connection refused"))
	e := newAuthServer(users)

	rec := do(e, http.MethodPost, "/api/v1/auth/login", `{"email": "a@example.com", "password": "password1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, user.ID.Hex(), resp.UserID)

	rec = do(e, http.MethodPost, "/api/v1/auth/login", `{"email": "a@example.com", "password": "wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/auth/login", `{"email": "nobody@example.com", "password": "password1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/auth/login", `{"email": "down@example.com", "password": "password1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestProfileAndRefresh(t *testing.T) {
	user, err := models.NewUser("alice", "a@example.com", "password1", time.Now())
	require.NoError(t, err)
	user.ID = primitive.NewObjectID()

	users := new(mockUsers)
	users.On("GetUserByID", mock.Anything, user.ID.Hex()).Return(user, nil)
	e := newAuthServer(users)

	token, err := auth.GenerateJWT(user.ID.Hex(), testSecret, 1)
	require.NoError(t, err)

	rec := do(e, http.MethodGet, "/api/v1/user/profile?token="+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var profile UserProfileResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "alice", profile.Username)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec = do(e, http.MethodGet, "/api/v1/auth/refresh-token?token="+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	claims, err := auth.ParseToken(refreshed["token"], testSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)

	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/api/v1/user/profile", "").Code)
}

func TestAccountsUnavailableWithoutStore(t *testing.T) {
	e := newAuthServer(nil)
	rec := do(e, http.MethodPost, "/api/v1/auth/login", `{"email": "a@example.com", "password": "password1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
