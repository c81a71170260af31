package service

import (
	"context"

	"pokelearn/web/internal/client"
	"pokelearn/web/internal/domain"

	log "github.com/sirupsen/logrus"
)

type Status int

const (
	StatusChecking Status = iota
	StatusAuthenticated
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusChecking:
		return "checking"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Outcome is the result of one session check. The zero value is the
// checking state.
type Outcome struct {
	Status Status
	User   *domain.User
}

func (o Outcome) Admitted() bool {
	return o.Status == StatusAuthenticated
}

// Gate decides whether a page load may see the listing.
type Gate struct {
	identity client.IdentityClient
}

func NewGate(identity client.IdentityClient) *Gate {
	return &Gate{identity: identity}
}

func (g *Gate) Check(ctx context.Context, accessToken string) Outcome {
	if accessToken == "" {
		return Outcome{Status: StatusUnauthenticated}
	}

	user, err := g.identity.GetCurrentUser(ctx, accessToken)
	if err != nil {
		log.Warnf("⚠️ Session check failed, treating as signed out: %v", err)
		return Outcome{Status: StatusUnauthenticated}
	}
	if user == nil {
		return Outcome{Status: StatusUnauthenticated}
	}

	return Outcome{Status: StatusAuthenticated, User: user}
}
