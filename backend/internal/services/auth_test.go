package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"taskboard/backend/internal/apperror"
	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/models"
)

func signupRequest(email string) SignupRequest {
	return SignupRequest{Name: "Carol", Email: email, Password: "secret123"}
}

func TestSignup_CreatesMember(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRegisterService(env.users, "join-code")

	user, err := svc.Signup(context.Background(), signupRequest("  Carol@Example.com "))
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	if user.Email != "carol@example.com" {
		t.Errorf("Expected normalized email, got %s", user.Email)
	}
	if user.Role != models.RoleUser {
		t.Errorf("Expected role user, got %s", user.Role)
	}
	if user.ProfileImageURL != models.DefaultProfileImageURL {
		t.Errorf("Expected default profile image, got %s", user.ProfileImageURL)
	}
	if user.Password == "secret123" || !auth.VerifyPassword(user.Password, "secret123") {
		t.Error("Expected password to be stored hashed")
	}
}

func TestSignup_AdminJoinCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	withCode := signupRequest("boss@example.com")
	withCode.AdminJoinCode = "join-code"
	user, err := NewRegisterService(env.users, "join-code").Signup(ctx, withCode)
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("Expected admin role with join code, got %s", user.Role)
	}

	wrongCode := signupRequest("pretender@example.com")
	wrongCode.AdminJoinCode = "guess"
	user, err = NewRegisterService(env.users, "join-code").Signup(ctx, wrongCode)
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if user.Role != models.RoleUser {
		t.Errorf("Expected user role with wrong code, got %s", user.Role)
	}

	noCodeConfigured := signupRequest("empty@example.com")
	user, err = NewRegisterService(env.users, "").Signup(ctx, noCodeConfigured)
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if user.Role != models.RoleUser {
		t.Errorf("Expected empty join code to grant nothing, got %s", user.Role)
	}
}

func TestSignup_Errors(t *testing.T) {
	env := newTestEnv(t)
	svc := NewRegisterService(env.users, "")
	ctx := context.Background()

	if _, err := svc.Signup(ctx, signupRequest("dup@example.com")); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	_, err := svc.Signup(ctx, signupRequest("DUP@example.com"))
	expectKind(t, err, apperror.KindConflict)

	_, err = svc.Signup(ctx, SignupRequest{Email: "x@example.com", Password: "pw"})
	expectKind(t, err, apperror.KindValidation)

	long := signupRequest("long@example.com")
	long.Password = strings.Repeat("p", auth.MaxPasswordBytes+8)
	_, err = svc.Signup(ctx, long)
	expectKind(t, err, apperror.KindValidation)

	exact := signupRequest("exact@example.com")
	exact.Password = strings.Repeat("p", auth.MaxPasswordBytes)
	if _, err := svc.Signup(ctx, exact); err != nil {
		t.Errorf("Expected a %d byte password to be accepted, got %v", auth.MaxPasswordBytes, err)
	}
}

func TestSignin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	if _, err := NewRegisterService(env.users, "").Signup(ctx, signupRequest("dave@example.com")); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	svc := NewAuthService(env.users, tokens)

	user, token, err := svc.Signin(ctx, SigninRequest{Email: "Dave@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Signin failed: %v", err)
	}
	identity, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("Expected a valid token, got %v", err)
	}
	if identity.UserID != user.ID || identity.Role != models.RoleUser {
		t.Errorf("Unexpected identity %+v", identity)
	}

	_, _, err = svc.Signin(ctx, SigninRequest{Email: "dave@example.com", Password: "wrong"})
	expectKind(t, err, apperror.KindInvalidCredentials)

	_, _, err = svc.Signin(ctx, SigninRequest{Email: "nobody@example.com", Password: "secret123"})
	expectKind(t, err, apperror.KindInvalidCredentials)

	_, _, err = svc.Signin(ctx, SigninRequest{Email: "dave@example.com"})
	expectKind(t, err, apperror.KindValidation)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewAuthService(env.users, auth.NewTokenManager("test-secret", 0))

	other, err := env.users.FindByID(ctx, env.bob.UserID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	name := "Alice Cooper"
	password := "new-password"
	user, err := svc.UpdateProfile(ctx, env.alice, ProfileUpdate{Name: &name, Password: &password})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if user.Name != name {
		t.Errorf("Expected name %s, got %s", name, user.Name)
	}
	if user.Role != models.RoleUser {
		t.Errorf("Expected role unchanged, got %s", user.Role)
	}

	stored, err := svc.Profile(ctx, env.alice)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if !auth.VerifyPassword(stored.Password, password) {
		t.Error("Expected new password to be stored")
	}

	_, err = svc.UpdateProfile(ctx, env.alice, ProfileUpdate{Email: &other.Email})
	expectKind(t, err, apperror.KindConflict)

	empty := " "
	_, err = svc.UpdateProfile(ctx, env.alice, ProfileUpdate{Name: &empty})
	expectKind(t, err, apperror.KindValidation)

	long := strings.Repeat("p", 80)
	_, err = svc.UpdateProfile(ctx, env.alice, ProfileUpdate{Password: &long})
	expectKind(t, err, apperror.KindValidation)
}
