// auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/campusmesh/campus/api/errors"
	"github.com/campusmesh/campus/api/model"
)

// Scope discriminates which principal type a token authenticates.
type Scope string

const (
	ScopeSystem      Scope = "system"
	ScopeInstitution Scope = "institution"
)

// Claims carried by every access token issued by this service.
type Claims struct {
	UserID        string `json:"userId"`
	Email         string `json:"email"`
	Scope         Scope  `json:"scope"`
	InstitutionID string `json:"institutionId,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HMAC-signed access tokens.
type JWTManager struct {
	secretKey     string
	tokenDuration time.Duration
}

func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{secretKey: secretKey, tokenDuration: tokenDuration}
}

// GenerateUserToken issues a token for a global principal.
func (manager *JWTManager) GenerateUserToken(user *model.User) (string, error) {
	return manager.sign(Claims{
		UserID: user.ID,
		Email:  user.Email,
		Scope:  ScopeSystem,
	})
}

// GenerateInstitutionUserToken issues a token for an institution principal.
func (manager *JWTManager) GenerateInstitutionUserToken(user *model.InstitutionUser) (string, error) {
	return manager.sign(Claims{
		UserID:        user.ID,
		Email:         user.Email,
		Scope:         ScopeInstitution,
		InstitutionID: user.InstitutionID,
	})
}

func (manager *JWTManager) sign(claims Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(manager.tokenDuration)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(manager.secretKey))
}

// VerifyToken parses and validates a token, returning its claims.
func (manager *JWTManager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(manager.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrExpiredToken
		}
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
