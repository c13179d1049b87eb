package auth

import (
	"testing"
	"time"

	"aster-trading-bot/config"
)

func newTestService(t *testing.T, password string) *Service {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return NewService(config.AuthConfig{
		Enabled:             true,
		JWTSecret:           "test-secret",
		AccessTokenDuration: time.Hour,
		Username:            "operator",
		PasswordHash:        hash,
	})
}

func TestLogin(t *testing.T) {
	svc := newTestService(t, "correct-horse-battery")

	t.Run("valid credentials", func(t *testing.T) {
		pair, err := svc.Login("operator", "correct-horse-battery")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pair.AccessToken == "" || pair.TokenType != "Bearer" {
			t.Errorf("unexpected token pair: %+v", pair)
		}

		claims, err := svc.JWTManager().ValidateAccessToken(pair.AccessToken)
		if err != nil {
			t.Fatalf("issued token failed validation: %v", err)
		}
		if claims.Username != "operator" {
			t.Errorf("expected username operator, got %s", claims.Username)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.Login("operator", "nope"); err != ErrInvalidCredentials {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		if _, err := svc.Login("admin", "correct-horse-battery"); err != ErrInvalidCredentials {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestValidateAccessTokenRejectsForeignSecret(t *testing.T) {
	issuer := NewJWTManager("secret-a", time.Hour)
	verifier := NewJWTManager("secret-b", time.Hour)

	token, err := issuer.GenerateAccessToken(UserClaims{Username: "operator"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := verifier.ValidateAccessToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	mgr := &JWTManager{secret: []byte("test-secret"), accessTokenDuration: -time.Minute}

	token, err := mgr.GenerateAccessToken(UserClaims{Username: "operator"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mgr.ValidateAccessToken(token); err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}
