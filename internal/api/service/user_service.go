package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ctchen222/DrawSync/internal/api/models"
	"ctchen222/DrawSync/internal/api/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// TokenIssuer signs login tokens.
type TokenIssuer interface {
	Issue(userID int64, username string) (string, error)
}

// UserService defines the interface for user-related business logic.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
}

type userService struct {
	userRepo repository.UserRepository
	issuer   TokenIssuer
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, issuer TokenIssuer) UserService {
	return &userService{userRepo: userRepo, issuer: issuer}
}

// Register handles user registration.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	existingUser, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, ErrUsernameTaken
	}

	user := &models.User{Username: req.Username}
	if err := s.userRepo.CreateUser(ctx, user, req.Password); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "User registered", "user.id", user.ID, "user.name", user.Username)
	return user, nil
}

// Login checks the password and returns a signed token on success.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &models.LoginResponse{Token: token, UserID: user.ID, Username: user.Username}, nil
}
