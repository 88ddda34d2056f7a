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

type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ProfileImageURL string `json:"profileImageUrl"`
	AdminJoinCode   string `json:"adminJoinCode"`
}

type RegisterService interface {
	Signup(ctx context.Context, req SignupRequest) (*models.User, error)
}

type RegisterServiceImpl struct {
	users         repositories.UserRepository
	adminJoinCode string
}

// NewRegisterService grants the admin role to signups presenting
// adminJoinCode. An empty code disables admin signup.
func NewRegisterService(users repositories.UserRepository, adminJoinCode string) *RegisterServiceImpl {
	return &RegisterServiceImpl{users: users, adminJoinCode: adminJoinCode}
}

func (s *RegisterServiceImpl) Signup(ctx context.Context, req SignupRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, apperror.Validation("All fields are required")
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		return nil, apperror.Validation(auth.ErrPasswordTooLong.Error())
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("User already exists")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Internal("failed to check email", err)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	role := models.RoleUser
	if s.adminJoinCode != "" && req.AdminJoinCode == s.adminJoinCode {
		role = models.RoleAdmin
	}

	profileImage := strings.TrimSpace(req.ProfileImageURL)
	if profileImage == "" {
		profileImage = models.DefaultProfileImageURL
	}

	user := &models.User{
		Name:            name,
		Email:           email,
		Password:        hashed,
		ProfileImageURL: profileImage,
		Role:            role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, apperror.Conflict("User already exists")
		}
		return nil, apperror.Internal("failed to create user", err)
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
