// Package service implements business logic for accounts, transactions,
// categories, analytics, and the cache operator surface
package service

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"financeapi.app/config"
	"financeapi.app/errors"
	"financeapi.app/models"
	"financeapi.app/pkg/validation"
)

// warmTimeout bounds the post-login background cache warm
const warmTimeout = 10 * time.Second

// AuthService handles account registration and session lifecycle
type AuthService struct {
	userRepo    UserRepositoryInterface
	sessionRepo SessionRepositoryInterface
	warmer      CacheWarmerInterface
	config      *config.Config
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo UserRepositoryInterface,
	sessionRepo SessionRepositoryInterface,
	warmer CacheWarmerInterface,
	config *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		warmer:      warmer,
		config:      config,
	}
}

// Register creates a new user account
func (s *AuthService) Register(req *models.RegisterRequest) (*models.User, error) {
	log.Printf("[DEBUG] AuthService.Register called for email: %s\n", req.Email)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validation.IsValidEmail(email) {
		return nil, errors.NewValidationError("invalid email address")
	}
	if len(req.Password) < 8 {
		return nil, errors.NewValidationError("password must be at least 8 characters")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.NewValidationError("name is required")
	}

	existing, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to check existing account", err)
	}
	if existing != nil {
		return nil, errors.NewAlreadyExistsError("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.Auth.BcryptCost)
	if err != nil {
		return nil, errors.NewValidationError("password cannot be hashed")
	}

	role := models.RoleUser
	if s.config.Auth.IsAdminEmail(email) {
		role = models.RoleAdmin
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, errors.NewDatabaseError("failed to create account", err)
	}

	log.Printf("[DEBUG] Registered user ID %d with role %s\n", user.ID, user.Role)
	return user, nil
}

// Login verifies credentials and issues a session token. A successful login
// kicks off a background cache warm so the user's first requests hit warm
// entries instead of a burst of cold misses.
func (s *AuthService) Login(req *models.LoginRequest) (*models.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	log.Printf("[DEBUG] AuthService.Login called for email: %s\n", email)

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to look up account", err)
	}
	if user == nil {
		return nil, errors.NewUnauthorizedError("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errors.NewUnauthorizedError("invalid email or password")
	}

	session, err := s.sessionRepo.Create(user.ID, s.sessionTTL())
	if err != nil {
		return nil, errors.NewDatabaseError("failed to create session", err)
	}

	s.warmInBackground(user.ID)

	return &models.LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      *user,
	}, nil
}

// Logout ends the session identified by token
func (s *AuthService) Logout(token string) error {
	if token == "" {
		return errors.NewValidationError("session token is required")
	}
	if err := s.sessionRepo.DeleteByToken(token); err != nil {
		return errors.NewDatabaseError("failed to delete session", err)
	}
	return nil
}

// Authenticate resolves a session token to its user. Every failure mode
// surfaces as unauthorized; callers get no hint whether a token ever existed.
func (s *AuthService) Authenticate(token string) (*models.User, error) {
	if token == "" {
		return nil, errors.NewUnauthorizedError("missing session token")
	}

	session, err := s.sessionRepo.FindByToken(token)
	if err != nil || session == nil {
		return nil, errors.NewUnauthorizedError("invalid or expired session")
	}

	user, err := s.userRepo.FindByID(session.UserID)
	if err != nil {
		log.Printf("[ERROR] Session user lookup failed: %v\n", err)
		return nil, errors.NewUnauthorizedError("invalid or expired session")
	}

	return user, nil
}

func (s *AuthService) sessionTTL() time.Duration {
	return time.Duration(s.config.Auth.SessionTTLHours) * time.Hour
}

func (s *AuthService) warmInBackground(userID uint) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()

		if _, err := s.warmer.Warm(ctx, userID); err != nil {
			log.Printf("[ERROR] Post-login cache warm failed for user %d: %v\n", userID, err)
		}
	}()
}
