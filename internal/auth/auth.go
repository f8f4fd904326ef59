// Package auth hashes passwords and issues the bearer tokens that bind a
// request to a user.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "dashboard"

var (
	ErrNoToken      = errors.New("no bearer token found")
	ErrInvalidToken = errors.New("invalid token")
)

var hashParams = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, hashParams)
}

func CheckPasswordHash(password, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, hash)
}

// Issuer mints and verifies HS256 tokens whose subject is a user id.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	method *jwt.SigningMethodHMAC
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, method: jwt.SigningMethodHS256}
}

func (i *Issuer) Issue(userID uuid.UUID) (string, error) {
	return MakeJWT(userID, i.method, string(i.secret), i.ttl)
}

func (i *Issuer) Verify(token string) (uuid.UUID, error) {
	return ValidateJWT(token, string(i.secret), i.method.Alg())
}

func MakeJWT(userID uuid.UUID, method *jwt.SigningMethodHMAC, tokenSecret string, expiresIn time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		Subject:   userID.String(),
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(tokenSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateJWT checks signature, algorithm and expiry and returns the
// subject user id.
func ValidateJWT(tokenString, tokenSecret, algorithm string) (uuid.UUID, error) {
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return []byte(tokenSecret), nil
	},
		jwt.WithValidMethods([]string{algorithm}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject: %v", ErrInvalidToken, err)
	}
	return id, nil
}

func GetBearerToken(headers http.Header) (string, error) {
	authHeaderVal := headers.Get("Authorization")
	if authHeaderVal == "" {
		return "", ErrNoToken
	}
	scheme, token, ok := strings.Cut(authHeaderVal, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return strings.TrimSpace(token), nil
}

// TokenFromRequest also accepts a token query parameter, which browsers
// need for websocket upgrades.
func TokenFromRequest(r *http.Request) (string, error) {
	if token, err := GetBearerToken(r.Header); err == nil {
		return token, nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrNoToken
}
