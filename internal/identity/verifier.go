package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt"
)

var ErrInvalidToken = errors.New("invalid identity token")

// Verifier parses identity-provider tokens into an Identity.
// Tokens are HMAC-signed JWTs carrying uid/email/name/role claims.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}

	id := Identity{
		UID:         stringClaim(claims, "uid"),
		Email:       stringClaim(claims, "email"),
		DisplayName: stringClaim(claims, "name"),
		Role:        stringClaim(claims, "role"),
	}
	if id.UID == "" {
		return Identity{}, fmt.Errorf("%w: missing uid claim", ErrInvalidToken)
	}
	if id.Role == "" {
		id.Role = "user"
	}
	return id, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
