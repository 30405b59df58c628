package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"orderdesk/internal/models"
	"orderdesk/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted for an admin account.
const MinPasswordLength = 6

// ErrInvalidCredentials is returned by Login for an unknown username or a
// wrong password alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	adminRepo repositories.AdminRepository
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(adminRepo repositories.AdminRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		adminRepo: adminRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Login authenticates an admin and returns a signed bearer token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.Admin, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, repositories.ErrAdminNotFound) {
			return "", nil, fmt.Errorf("failed to look up admin: %w", err)
		}
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": admin.ID,
		"username": admin.Username,
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, admin, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
// Only HS256 tokens carrying an expiry are accepted.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// UpsertAdmin creates the admin or, when the username is taken, replaces
// its password. It reports whether a new account was created.
func (s *AuthService) UpsertAdmin(ctx context.Context, username, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, newFieldError("username", "is required")
	}
	if len(password) < MinPasswordLength {
		return false, newFieldError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := s.adminRepo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if err := s.adminRepo.UpdatePassword(ctx, existing.ID, string(hashedPassword)); err != nil {
			return false, fmt.Errorf("failed to update admin %s: %w", username, err)
		}
		return false, nil
	case errors.Is(err, repositories.ErrAdminNotFound):
		admin := &models.Admin{Username: username, Password: string(hashedPassword)}
		if err := s.adminRepo.Create(ctx, admin); err != nil {
			return false, fmt.Errorf("failed to create admin %s: %w", username, err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}
}

// EnsureDefaultAdmin creates the bootstrap admin when no account with that
// username exists. An existing account is left untouched.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil
	}

	_, err := s.adminRepo.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrAdminNotFound) {
		return fmt.Errorf("failed to look up default admin: %w", err)
	}

	if _, err := s.UpsertAdmin(ctx, username, password); err != nil {
		return err
	}
	log.Printf("Created default admin account %q", username)
	return nil
}
