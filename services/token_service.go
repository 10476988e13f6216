package services

import (
	"fmt"
	"time"

	"github.com/sayfoods/sayfoods-api/config"
	"github.com/sayfoods/sayfoods-api/models"
	"gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"
)

// SessionClaims are the application claims carried by a session token
type SessionClaims struct {
	UserName string `json:"userName"`
	IsAdmin  bool   `json:"isAdmin"`
}

// TokenService signs HS256 session tokens. The token id is the session row id.
type TokenService struct {
	signer jose.Signer
}

// NewTokenService creates a signer keyed with the configured session secret
func NewTokenService(cfg *config.Config) (*TokenService, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: cfg.SessionSigningKey()},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create token signer: %w", err)
	}
	return &TokenService{signer: signer}, nil
}

// Issue signs a token for user bound to session
func (s *TokenService) Issue(user *models.User, session *models.Session) (string, error) {
	registered := jwt.Claims{
		Issuer:    config.TokenIssuer,
		Subject:   user.ID,
		Audience:  jwt.Audience{config.TokenAudience},
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		NotBefore: jwt.NewNumericDate(session.CreatedAt.Add(-time.Minute)),
		Expiry:    jwt.NewNumericDate(session.ExpiresAt),
		ID:        session.ID,
	}
	custom := SessionClaims{UserName: user.UserName, IsAdmin: user.IsAdmin}

	token, err := jwt.Signed(s.signer).Claims(registered).Claims(custom).CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}
