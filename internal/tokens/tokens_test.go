package tokens

import (
	"context"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/peckin/peckin/backend/go-services/internal/config"
	"github.com/peckin/peckin/backend/go-services/internal/models"
	"github.com/peckin/peckin/backend/go-services/internal/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testConfig(secret string) *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = secret
	return cfg
}

func TestGenerateAccessToken_ValidAndClaims(t *testing.T) {
	cfg := testConfig("test-secret-32-bytes-should-be-long-enough")
	a := &models.Account{ID: "user-123", Email: "test@example.com", DisplayName: "Test User"}

	tokenStr, err := GenerateAccessToken(cfg, a, 2*time.Minute)
	require.NoError(t, err)

	tok, err := NewVerifier(cfg, nil).Verify(context.Background(), tokenStr)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, "user-123", claims["sub"])
	require.Equal(t, "test@example.com", claims["email"])
	require.Equal(t, Issuer, claims["iss"])
}

func TestVerify_Expired(t *testing.T) {
	cfg := testConfig("another-secret-32-bytes-longgggg")
	a := &models.Account{ID: "u2", Email: "x@x"}
	tokenStr, err := GenerateAccessToken(cfg, a, -time.Minute)
	require.NoError(t, err)

	_, err = NewVerifier(cfg, nil).Verify(context.Background(), tokenStr)
	require.Error(t, err)
}

func TestVerify_WrongSecretFails(t *testing.T) {
	cfg := testConfig("secret-one-32-bytes-xxxxxxxxxxxxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, &models.Account{ID: "u3"}, 2*time.Minute)
	require.NoError(t, err)

	_, err = NewVerifier(testConfig("different-secret-xxxxxxxxxxxxxxxx"), nil).Verify(context.Background(), tokenStr)
	require.Error(t, err)
}

func TestVerify_AlgNoneRejected(t *testing.T) {
	headerEnc := new(jwt.Token).EncodeSegment([]byte(`{"alg":"none"}`))
	payloadEnc := new(jwt.Token).EncodeSegment([]byte(`{"sub":"u-none","iss":"peckin","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."
	_, err := NewVerifier(testConfig("x"), nil).Verify(context.Background(), tok)
	require.Error(t, err)
}

func TestVerify_TamperedPayload(t *testing.T) {
	cfg := testConfig("tamper-test-secret-32-bytes-xxxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, &models.Account{ID: "user-t"}, 5*time.Minute)
	require.NoError(t, err)

	parts := strings.Split(tokenStr, ".")
	require.Len(t, parts, 3)
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	require.NoError(t, err)
	parts[1] = new(jwt.Token).EncodeSegment([]byte(strings.Replace(string(payload), "user-t", "attacker", 1)))

	_, err = NewVerifier(cfg, nil).Verify(context.Background(), strings.Join(parts, "."))
	require.Error(t, err)
}

func TestVerify_RevokedToken(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	bl := sessions.NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}))

	cfg := testConfig("revoke-test-secret-32-bytes-xxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, &models.Account{ID: "u4"}, 5*time.Minute)
	require.NoError(t, err)

	v := NewVerifier(cfg, bl)
	_, err = v.Verify(context.Background(), tokenStr)
	require.NoError(t, err)

	require.NoError(t, bl.Revoke(context.Background(), tokenStr, time.Minute))
	_, err = v.Verify(context.Background(), tokenStr)
	require.ErrorIs(t, err, ErrRevoked)
}

func TestExpiresAt(t *testing.T) {
	cfg := testConfig("exp-secret-32-bytes-xxxxxxxxxxxxxx")
	tokenStr, err := GenerateAccessToken(cfg, &models.Account{ID: "u5"}, time.Hour)
	require.NoError(t, err)

	exp, err := ExpiresAt(tokenStr)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	_, err = ExpiresAt("not.a.jwt")
	require.Error(t, err)
}
