package services_test

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"orderdesk/internal/models"
	"orderdesk/internal/repositories"
	"orderdesk/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockAdminRepository is a mock implementation of repositories.AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

func (m *MockAdminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

const testJWTSecret = "test_jwt_secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockAdminRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	admin := &models.Admin{
		ID:       "admin-123",
		Username: "admin",
		Password: string(hashedPassword),
	}

	// Successful login
	mockRepo.On("GetByUsername", ctx, "admin").Return(admin, nil).Once()
	token, got, err := authService.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "admin", got.Username)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims["admin_id"])
	assert.Equal(t, admin.Username, claims["username"])
	mockRepo.AssertExpectations(t)

	// Wrong password
	mockRepo.On("GetByUsername", ctx, "admin").Return(admin, nil).Once()
	_, _, err = authService.Login(ctx, "admin", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)

	// Unknown admin gets the same generic error
	mockRepo.On("GetByUsername", ctx, "nobody").Return(nil, repositories.ErrAdminNotFound).Once()
	_, _, err = authService.Login(ctx, "nobody", "admin123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)

	// Storage failure is not reported as bad credentials
	mockRepo.On("GetByUsername", ctx, "admin").Return(nil, errors.New("connection refused")).Once()
	_, _, err = authService.Login(ctx, "admin", "admin123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockAdminRepository), testJWTSecret, time.Hour)

	valid := signToken(t, jwt.SigningMethodHS256, []byte(testJWTSecret), jwt.MapClaims{
		"admin_id": "admin-123",
		"username": "admin",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	claims, err := authService.ValidateToken(valid)
	require.NoError(t, err)
	assert.Equal(t, "admin-123", claims["admin_id"])

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "invalid.token.string"},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{
			"admin_id": "admin-123",
			"exp":      time.Now().Add(time.Hour).Unix(),
		})},
		{"expired", signToken(t, jwt.SigningMethodHS256, []byte(testJWTSecret), jwt.MapClaims{
			"admin_id": "admin-123",
			"exp":      time.Now().Add(-time.Hour).Unix(),
		})},
		{"no expiry", signToken(t, jwt.SigningMethodHS256, []byte(testJWTSecret), jwt.MapClaims{
			"admin_id": "admin-123",
		})},
		{"other algorithm", signToken(t, jwt.SigningMethodHS512, []byte(testJWTSecret), jwt.MapClaims{
			"admin_id": "admin-123",
			"exp":      time.Now().Add(time.Hour).Unix(),
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authService.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid token")
		})
	}
}

func TestAuthService_UpsertAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing admin with hashed password", func(t *testing.T) {
		mockRepo := new(MockAdminRepository)
		authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

		mockRepo.On("GetByUsername", ctx, "ops").Return(nil, repositories.ErrAdminNotFound).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(a *models.Admin) bool {
			return a.Username == "ops" &&
				bcrypt.CompareHashAndPassword([]byte(a.Password), []byte("secret1")) == nil
		})).Return(nil).Once()

		created, err := authService.UpsertAdmin(ctx, " ops ", "secret1")
		require.NoError(t, err)
		assert.True(t, created)
		mockRepo.AssertExpectations(t)
	})

	t.Run("resets password of existing admin", func(t *testing.T) {
		mockRepo := new(MockAdminRepository)
		authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

		mockRepo.On("GetByUsername", ctx, "ops").Return(&models.Admin{ID: "a1", Username: "ops"}, nil).Once()
		mockRepo.On("UpdatePassword", ctx, "a1", mock.AnythingOfType("string")).Return(nil).Once()

		created, err := authService.UpsertAdmin(ctx, "ops", "secret1")
		require.NoError(t, err)
		assert.False(t, created)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects short password", func(t *testing.T) {
		authService := services.NewAuthService(new(MockAdminRepository), testJWTSecret, time.Hour)

		_, err := authService.UpsertAdmin(ctx, "ops", "123")
		var verr *services.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "password")
	})
}

func TestAuthService_EnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewMockAdminRepository()
	authService := services.NewAuthService(repo, testJWTSecret, time.Hour)

	require.NoError(t, authService.EnsureDefaultAdmin(ctx, "admin", "admin123"))
	first, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)

	// A second call must not reset the password.
	require.NoError(t, authService.EnsureDefaultAdmin(ctx, "admin", "different-password"))
	second, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, first.Password, second.Password)

	_, _, err = authService.Login(ctx, "admin", "admin123")
	assert.NoError(t, err)
}
