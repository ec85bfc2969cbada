package ids

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword adapts the teacher's bcrypt wrapper to a configurable cost
// (§6.3 BCRYPT_SALT_ROUNDS, default 12).
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword verifies in constant time via bcrypt's own comparison.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SessionClaims generalizes the teacher's single-claim JWTClaims into the
// {userId, operatorId, role} triple required by §4.A.
type SessionClaims struct {
	UserID     string `json:"userId"`
	OperatorID string `json:"operatorId"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

const (
	issuer   = "parking-core"
	audience = "parking-api"
)

// IssueAccessToken signs a short-lived access token (default 7 days, per
// JWT_EXPIRE).
func IssueAccessToken(secret []byte, userID, operatorID, role string, ttl time.Duration, now time.Time) (string, error) {
	claims := &SessionClaims{
		UserID:     userID,
		OperatorID: operatorID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// IssueRefreshToken signs a longer-lived refresh token (default 30 days,
// per JWT_REFRESH_EXPIRE) carrying a jti bound to the value persisted on
// the user record so it can be revoked.
func IssueRefreshToken(secret []byte, userID, jti string, ttl time.Duration, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{
		Subject:   userID,
		ID:        jti,
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseAccessToken verifies the HMAC signature (constant-time via the jwt
// library's own comparison) and decodes the session claims.
func ParseAccessToken(secret []byte, tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	return claims, nil
}

// ParseRefreshToken verifies a refresh token and returns its subject and jti.
func ParseRefreshToken(secret []byte, tokenString string) (userID, jti string, err error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("invalid or expired token")
	}
	return claims.Subject, claims.ID, nil
}

// ConstantTimeEqual compares two secrets (e.g. OTP/PIN candidates) without
// leaking timing information.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
