// Package session resolves the authenticated caller of a request from the
// access token issued by the Supabase auth service.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the application role stored in the user's app metadata.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleAgencyAdmin Role = "agency_admin"
	RoleDispatcher  Role = "dispatcher"
	RoleEngineer    Role = "engineer"
	RoleClient      Role = "client"
)

// Session is the authenticated caller.
type Session struct {
	UserID   uuid.UUID  `json:"user_id"`
	Role     Role       `json:"role"`
	AgencyID *uuid.UUID `json:"agency_id,omitempty"`
}

// Provider resolves a session from a bearer token.
type Provider interface {
	SessionFromToken(ctx context.Context, token string) (*Session, error)
}

var (
	ErrMissingSecret = errors.New("session: jwt secret is not configured")
	ErrInvalidToken  = errors.New("session: invalid access token")
)

// JWTProvider verifies HS256 access tokens signed with the project JWT secret.
type JWTProvider struct {
	secret   []byte
	audience string
}

// NewJWTProvider creates a provider. Tokens must carry the given audience
// when it is non-empty ("authenticated" for Supabase user tokens).
func NewJWTProvider(secret, audience string) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), audience: audience}
}

type claims struct {
	AppMetadata struct {
		Role     string `json:"role"`
		AgencyID string `json:"agency_id"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

// SessionFromToken validates the token and maps its claims to a Session.
func (p *JWTProvider) SessionFromToken(_ context.Context, token string) (*Session, error) {
	if len(p.secret) == 0 {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.audience != "" {
		opts = append(opts, jwt.WithAudience(p.audience))
	}

	var c claims
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &c, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	s := &Session{UserID: userID, Role: Role(c.AppMetadata.Role)}
	if c.AppMetadata.AgencyID != "" {
		agencyID, err := uuid.Parse(c.AppMetadata.AgencyID)
		if err != nil {
			return nil, fmt.Errorf("%w: agency_id is not a uuid", ErrInvalidToken)
		}
		s.AgencyID = &agencyID
	}
	return s, nil
}
