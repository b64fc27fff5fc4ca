package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/repository"
	"github.com/storeup/storeup-backend/internal/authz"
	apperrors "github.com/storeup/storeup-backend/internal/errors"
	"github.com/storeup/storeup-backend/pkg/logger"
	"github.com/storeup/storeup-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apperrors.Unauthenticated(apperrors.AuthInvalidCredentials, "invalid username or password")
	ErrUserNotFound       = apperrors.NotFound(apperrors.UserNotFound, "user not found")

	ErrEmailAlreadyExists = apperrors.Validation(apperrors.AuthEmailAlreadyExists,
		"a user with that email already exists",
		map[string]string{"email": "a user with that email already exists"})

	ErrUsernameAlreadyExists = apperrors.Validation(apperrors.AuthUsernameExists,
		"a user with that username already exists",
		map[string]string{"username": "a user with that username already exists"})

	ErrPasswordMismatch = apperrors.Validation(apperrors.AuthPasswordMismatch,
		"Password fields didn't match.",
		map[string]string{"password": "Password fields didn't match."})
)

// TokenRevoker records logged-out token ids until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
	FirstName string
	LastName  string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(ctx context.Context, identifier, password string) (*model.User, *util.TokenPair, error)
	GetUserByID(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context, p *authz.Principal) ([]model.User, error)
	Logout(ctx context.Context, claims *util.Claims) error
}

type authService struct {
	userRepo      repository.UserRepository
	guard         *authz.Guard
	revoker       TokenRevoker
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthService builds the auth service. revoker may be nil, in which
// case logout only succeeds client-side.
func NewAuthService(
	userRepo repository.UserRepository,
	guard *authz.Guard,
	revoker TokenRevoker,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		guard:         guard,
		revoker:       revoker,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*model.User, *util.TokenPair, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)

	logger.Info("Attempting user registration", map[string]interface{}{
		"username": input.Username,
		"email":    input.Email,
	})

	if input.Password != input.Password2 {
		return nil, nil, ErrPasswordMismatch
	}
	if err := util.CheckPasswordPolicy(input.Password, input.Username); err != nil {
		return nil, nil, apperrors.Field("password", err.Error())
	}

	if _, err := s.userRepo.FindByEmail(ctx, input.Email); err == nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": input.Email,
		})
		return nil, nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": input.Email,
		})
		return nil, nil, apperrors.FromDB(err, nil)
	}

	if _, err := s.userRepo.FindByUsername(ctx, input.Username); err == nil {
		return nil, nil, ErrUsernameAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperrors.FromDB(err, nil)
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return nil, nil, apperrors.Internal("failed to hash password", err)
	}

	user := &model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// a concurrent registration can still win the unique index
		return nil, nil, apperrors.FromDB(err, nil)
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	})
	return user, tokens, nil
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*model.User, *util.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	logger.Info("Login attempt", map[string]interface{}{
		"identifier": identifier,
	})

	user, err := s.userRepo.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"identifier": identifier,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, apperrors.FromDB(err, nil)
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

func (s *authService) issue(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, apperrors.Internal("failed to generate tokens", err)
	}
	return tokens, nil
}

func (s *authService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *authService) ListUsers(ctx context.Context, p *authz.Principal) ([]model.User, error) {
	if err := decide(s.guard.Authorize(p, authz.ActionList, authz.Resource{Kind: authz.KindUser})); err != nil {
		return nil, err
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperrors.FromDB(err, nil)
	}
	return users, nil
}

func (s *authService) Logout(ctx context.Context, claims *util.Claims) error {
	if claims == nil {
		return apperrors.Unauthenticated(apperrors.AuthUnauthorized, "authentication required")
	}
	if s.revoker == nil || claims.ID == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.RemainingLifetime(time.Now())); err != nil {
		logger.Error("Failed to revoke token", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return apperrors.Internal("failed to revoke token", err)
	}
	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}
