package auth

import (
	"golang.org/x/crypto/bcrypt"

	"aster-trading-bot/config"
)

// Service authenticates the single dashboard operator configured in
// AuthConfig and issues access tokens for them.
type Service struct {
	cfg config.AuthConfig
	jwt *JWTManager
}

// NewService creates a new auth service
func NewService(cfg config.AuthConfig) *Service {
	return &Service{
		cfg: cfg,
		jwt: NewJWTManager(cfg.JWTSecret, cfg.AccessTokenDuration),
	}
}

// JWTManager exposes the token manager for middleware wiring
func (s *Service) JWTManager() *JWTManager {
	return s.jwt
}

// Login validates credentials against the configured operator account and
// returns a token pair. Credential mismatches all map to the same error so
// the response does not reveal which field was wrong.
func (s *Service) Login(username, password string) (*TokenPair, error) {
	if username != s.cfg.Username {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.jwt.GenerateTokenPair(UserClaims{Username: username})
}

// HashPassword hashes a password for storage in AuthConfig. Used by setup
// tooling, not the request path.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
