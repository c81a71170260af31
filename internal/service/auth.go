package service

import (
	"context"
	"strings"

	"pokelearn/web/internal/client"
	"pokelearn/web/internal/domain"
	"pokelearn/web/internal/state"

	log "github.com/sirupsen/logrus"
)

const MinPasswordLength = 6

type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate runs the checks that need no network round trip.
func (in RegisterInput) Validate() error {
	if in.Password != in.ConfirmPassword {
		return &domain.ValidationError{Field: "confirm_password", Message: "Passwords do not match"}
	}
	if len(in.Password) < MinPasswordLength {
		return &domain.ValidationError{Field: "password", Message: "Password must be at least 6 characters long"}
	}
	return nil
}

type RegisterResult struct {
	NeedsConfirmation bool
	Message           string
}

type AuthService struct {
	identity client.IdentityClient
	sessions state.SessionStore
}

func NewAuthService(identity client.IdentityClient, sessions state.SessionStore) *AuthService {
	return &AuthService{
		identity: identity,
		sessions: sessions,
	}
}

// SignIn authenticates with the identity provider and returns the id of the
// new server-side session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", &domain.ValidationError{Field: "email", Message: "Email and password are required"}
	}

	session, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return "", err
	}

	return s.sessions.Create(*session)
}

func (s *AuthService) SignUp(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	result, err := s.identity.SignUp(ctx, strings.TrimSpace(in.Email), in.Password, map[string]string{
		"full_name": in.FullName,
	})
	if err != nil {
		return nil, err
	}

	if result.NeedsConfirmation() {
		return &RegisterResult{
			NeedsConfirmation: true,
			Message:           "Please check your email to confirm your account",
		}, nil
	}

	return &RegisterResult{Message: "Account created, you can now log in"}, nil
}

// SignOut ends the provider session and forgets the local one. The local
// session is dropped even when the provider call fails.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	entry, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil
	}
	s.sessions.Delete(sessionID)

	if err := s.identity.SignOut(ctx, entry.Session.AccessToken); err != nil {
		log.Warnf("⚠️ Provider sign out failed: %v", err)
		return err
	}
	return nil
}

// AccessToken resolves a session id to the provider token it holds.
func (s *AuthService) AccessToken(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	entry, err := s.sessions.Get(sessionID)
	if err != nil {
		return ""
	}
	return entry.Session.AccessToken
}
