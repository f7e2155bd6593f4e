package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/authservice/internal/models"
)

const accessTokenTTL = time.Hour

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Static signing options, read once at startup
// Only the first audience is used when signing, the rest are carried for verifiers
type JwtOptions struct {
	Key       string
	Issuer    string
	Audiences []string
}

// Signer issues JWT access tokens
// Stateless: nothing is persisted, the caller holds the token
type Signer struct {
	key []byte
	alg jwt.SigningMethod

	issuer   string
	audience string
}

func NewSigner(opts JwtOptions) (*Signer, error) {
	switch {
	case opts.Key == "":
		return nil, errors.New("jwt signing key must not be empty")
	case opts.Issuer == "":
		return nil, errors.New("jwt issuer must not be empty")
	case len(opts.Audiences) == 0:
		return nil, errors.New("jwt audiences must not be empty")
	}

	return &Signer{
		key:      []byte(opts.Key),
		alg:      jwt.SigningMethodHS256,
		issuer:   opts.Issuer,
		audience: opts.Audiences[0],
	}, nil
}

// Sign user id and email into a token valid for one hour
func (s *Signer) Sign(user models.User) (string, error) {
	now := time.Now().UTC().Truncate(time.Second)

	token := jwt.NewWithClaims(
		s.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   user.ID.String(),
				Issuer:    s.issuer,
				Audience:  jwt.ClaimStrings{s.audience},
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
			},
			Email: user.Email,
		},
	)

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return signed, nil
}

// Parse and validate access token, return the user id from the subject claim
func (s *Signer) Parse(access string) (uuid.UUID, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{s.alg.Alg()}),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}

	return uuid.Parse(claims.Subject)
}
