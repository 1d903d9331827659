package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/peckin/peckin/backend/go-services/internal/config"
	"github.com/peckin/peckin/backend/go-services/internal/models"
	"github.com/peckin/peckin/backend/go-services/internal/sessions"
	"github.com/peckin/peckin/backend/go-services/pkg/middleware"
)

// Issuer is the iss claim of first-party access tokens.
const Issuer = "peckin"

var ErrRevoked = errors.New("token revoked")

// GenerateAccessToken creates a signed JWT access token for the account.
func GenerateAccessToken(cfg *config.Config, a *models.Account, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   Issuer,
		"sub":   a.ID,
		"email": a.Email,
		"name":  a.DisplayName,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// ExpiresAt reads the exp claim without verifying the signature. Used to
// size blacklist entries.
func ExpiresAt(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("exp claim not present")
	}
	return exp.Time, nil
}

type claimsToken struct {
	claims jwt.MapClaims
}

func (t *claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Verifier checks first-party access tokens: HS256 signature, issuer,
// expiry, and the revocation blacklist.
type Verifier struct {
	secret    []byte
	blacklist *sessions.Blacklist
	parser    *jwt.Parser
}

func NewVerifier(cfg *config.Config, bl *sessions.Blacklist) *Verifier {
	return &Verifier{
		secret:    []byte(cfg.JWT.Secret),
		blacklist: bl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(Issuer),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	revoked, err := v.blacklist.IsRevoked(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("blacklist lookup: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}
	return &claimsToken{claims: claims}, nil
}
