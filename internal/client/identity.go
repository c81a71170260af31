package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pokelearn/web/internal/config"
	"pokelearn/web/internal/domain"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// IdentityClient talks to the GoTrue REST API of a Supabase project.
type IdentityClient interface {
	GetCurrentUser(ctx context.Context, accessToken string) (*domain.User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password string, profile map[string]string) (*SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
}

// SignUpResult is the outcome of a registration. Session is nil while the
// provider waits for the user to confirm their email address.
type SignUpResult struct {
	User    domain.User
	Session *domain.Session
}

func (r *SignUpResult) NeedsConfirmation() bool {
	return !r.User.Confirmed()
}

type identityClient struct {
	httpClient *resty.Client
}

func NewIdentityClient(cfg config.AuthConfig) IdentityClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")+"/auth/v1").
		SetRetryCount(0).
		SetHeader("apikey", cfg.AnonKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.Timeout > 0 {
		client.SetTimeout(time.Duration(cfg.Timeout) * time.Second)
	}

	return &identityClient{httpClient: client}
}

type userPayload struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	ConfirmedAt  *time.Time     `json:"confirmed_at"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u *userPayload) toUser() domain.User {
	user := domain.User{
		ID:          u.ID,
		Email:       u.Email,
		ConfirmedAt: u.ConfirmedAt,
	}
	if name, ok := u.UserMetadata["full_name"].(string); ok {
		user.FullName = name
	}
	return user
}

type sessionPayload struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         *userPayload `json:"user"`
}

func (s *sessionPayload) toSession() *domain.Session {
	session := &domain.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
	}
	switch {
	case s.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		session.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	if s.User != nil {
		session.User = s.User.toUser()
	}
	return session
}

type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *errorPayload) text() string {
	for _, candidate := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func (c *identityClient) GetCurrentUser(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, nil
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Get("/user")
	if err != nil {
		return nil, fmt.Errorf("failed to query current user: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		log.Debugf("Identity provider rejected access token: %s", resp.Status())
		return nil, nil
	}
	if resp.IsError() {
		return nil, authError(resp)
	}

	var payload userPayload
	if err := json.Unmarshal([]byte(resp.String()), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	user := payload.toUser()
	return &user, nil
}

func (c *identityClient) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{
			"email":    email,
			"password": password,
		}).
		Post("/token")
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	if resp.IsError() {
		return nil, authError(resp)
	}

	var payload sessionPayload
	if err := json.Unmarshal([]byte(resp.String()), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, &domain.AuthError{Status: resp.StatusCode(), Message: "Sign in did not return a session"}
	}

	log.Infof("🔐 Signed in %s", email)
	return payload.toSession(), nil
}

func (c *identityClient) SignUp(ctx context.Context, email, password string, profile map[string]string) (*SignUpResult, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"email":    email,
			"password": password,
			"data":     profile,
		}).
		Post("/signup")
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}
	if resp.IsError() {
		return nil, authError(resp)
	}

	// With confirmations disabled the provider answers with a full session,
	// otherwise with the bare user record.
	var payload struct {
		sessionPayload
		userPayload
	}
	if err := json.Unmarshal([]byte(resp.String()), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode sign up response: %w", err)
	}

	result := &SignUpResult{}
	if payload.AccessToken != "" && payload.sessionPayload.User != nil {
		result.Session = payload.sessionPayload.toSession()
		result.User = result.Session.User
	} else {
		result.User = payload.userPayload.toUser()
	}

	log.Infof("📝 Registered %s (confirmation pending: %t)", email, result.NeedsConfirmation())
	return result, nil
}

func (c *identityClient) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Post("/logout")
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized {
		return authError(resp)
	}
	return nil
}

func authError(resp *resty.Response) error {
	var payload errorPayload
	message := ""
	if err := json.Unmarshal([]byte(resp.String()), &payload); err == nil {
		message = payload.text()
	}
	if message == "" {
		message = resp.Status()
	}
	return &domain.AuthError{Status: resp.StatusCode(), Message: message}
}
