package services

import (
	"context"
	"errors"
	"strings"

	"taskboard/backend/internal/apperror"
	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/repositories"
)

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate carries only the fields the caller sent.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type AuthService interface {
	Signin(ctx context.Context, req SigninRequest) (*models.User, string, error)
	Profile(ctx context.Context, caller auth.Identity) (*models.User, error)
	UpdateProfile(ctx context.Context, caller auth.Identity, update ProfileUpdate) (*models.User, error)
}

type AuthServiceImpl struct {
	users  repositories.UserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repositories.UserRepository, tokens *auth.TokenManager) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, tokens: tokens}
}

// Signin verifies the credentials and issues an access token. Unknown
// emails and wrong passwords fail the same way.
func (s *AuthServiceImpl) Signin(ctx context.Context, req SigninRequest) (*models.User, string, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, "", apperror.Validation("All fields are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", apperror.InvalidCredentials()
		}
		return nil, "", apperror.Internal("failed to load user", err)
	}

	if !auth.VerifyPassword(user.Password, req.Password) {
		return nil, "", apperror.InvalidCredentials()
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, "", apperror.Internal("failed to issue token", err)
	}

	return user, token, nil
}

func (s *AuthServiceImpl) Profile(ctx context.Context, caller auth.Identity) (*models.User, error) {
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, storeError(err, "User not found", "failed to load user")
	}
	return user, nil
}

func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, caller auth.Identity, update ProfileUpdate) (*models.User, error) {
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, storeError(err, "User not found", "failed to load user")
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperror.Validation("name cannot be empty")
		}
		user.Name = name
	}

	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		if email == "" {
			return nil, apperror.Validation("email cannot be empty")
		}
		user.Email = email
	}

	if update.Password != nil {
		if *update.Password == "" {
			return nil, apperror.Validation("password cannot be empty")
		}
		if len(*update.Password) > auth.MaxPasswordBytes {
			return nil, apperror.Validation(auth.ErrPasswordTooLong.Error())
		}
		hashed, err := auth.HashPassword(*update.Password)
		if err != nil {
			return nil, apperror.Internal("failed to hash password", err)
		}
		user.Password = hashed
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, apperror.Conflict("Email already in use")
		}
		return nil, storeError(err, "User not found", "failed to update user")
	}

	return user, nil
}
