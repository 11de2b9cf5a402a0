package services

import (
	"context"
	"strings"
	"time"

	"schemagraph/application/ports"
	"schemagraph/domain/core/entities"
	"schemagraph/domain/events"
	apperrors "schemagraph/pkg/errors"
	"schemagraph/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens for authenticated users
type TokenIssuer interface {
	GenerateToken(userID, username string) (string, error)
}

// Credentials is a username and password pair
type Credentials struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token string            `json:"token"`
	User  entities.Identity `json:"user"`
}

// AuthService registers accounts and exchanges credentials for tokens
type AuthService struct {
	users      ports.UserRepository
	tokens     TokenIssuer
	publisher  ports.EventPublisher
	logger     *zap.Logger
	bcryptCost int
	newID      func() string
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users ports.UserRepository, tokens TokenIssuer, publisher ports.EventPublisher, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		publisher:  publisher,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Register creates an account and returns a token for it
func (s *AuthService) Register(ctx context.Context, creds Credentials) (*AuthResult, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if err := utils.ValidateStruct(creds); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByUsername(ctx, creds.Username); err == nil {
		return nil, apperrors.NewConflictError("User already exists")
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password").WithCause(err)
	}

	user := &entities.User{
		ID:           s.newID(),
		Username:     creds.Username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.NewUserRegistered(user.ID, user.Username, user.CreatedAt))
	s.logger.Info("User registered", zap.String("userID", user.ID))

	return s.issue(user)
}

// Login verifies credentials and returns a fresh token.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*AuthResult, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return nil, apperrors.NewValidationError("username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, creds.Username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		s.logger.Debug("Password mismatch", zap.String("userID", user.ID))
		return nil, apperrors.NewUnauthorizedError("Invalid credentials")
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *entities.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue token").WithCause(err)
	}
	return &AuthResult{Token: token, User: user.Identity()}, nil
}
