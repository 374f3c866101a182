package jwt

import (
	"time"
)

// Service is a wrapper for JWT operations
type Service struct {
	secretKey string
	expiry    time.Duration
}

// NewService creates a new JWT service
func NewService(secretKey string, expiry time.Duration) *Service {
	if secretKey == "" {
		secretKey = getSecretKey()
	}
	if expiry == 0 {
		expiry = 24 * time.Hour
	}

	return &Service{
		secretKey: secretKey,
		expiry:    expiry,
	}
}

// GenerateToken generates a session token for a user
func (s *Service) GenerateToken(userID uint, email string) (string, error) {
	return generateToken(userID, email, s.secretKey, s.expiry)
}

// ValidateToken validates a session token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return validateToken(tokenString, s.secretKey)
}
