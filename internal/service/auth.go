package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cinelog/internal/config"
)

// AuthService issues the access tokens checked by the auth middleware.
type AuthService struct {
	secret []byte
	maxAge int
	now    func() time.Time
}

func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{
		secret: []byte(cfg.JWTSecret),
		maxAge: cfg.AccessTokenMaxAge,
		now:    time.Now,
	}
}

// IssueAccessToken signs an HS256 token carrying the user id.
func (s *AuthService) IssueAccessToken(uid string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": uid,
		"exp":     now.Add(time.Duration(s.maxAge) * time.Second).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) MaxAge() int {
	return s.maxAge
}
