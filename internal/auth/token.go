package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	dErrors "clubroster/pkg/domain-errors"
)

// sessionClaims binds a token to its server-side session.
type sessionClaims struct {
	CallSign string `json:"call_sign"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and parses session tokens. The token carries the session
// id; the session store stays authoritative so revocation works.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret}
}

func (t *TokenIssuer) Issue(session Session) (string, error) {
	claims := sessionClaims{
		CallSign: session.CallSign,
		IsAdmin:  session.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   session.CallSign,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (t *TokenIssuer) Parse(tokenString string) (*sessionClaims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid session token")
	}
	return &claims, nil
}
