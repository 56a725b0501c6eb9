package crypto_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	crypt "github.com/IvanChernomyrdin/go-authkeeper/internal/server/crypto"
	serr "github.com/IvanChernomyrdin/go-authkeeper/internal/shared/errors"
)

const testKey = "supersecretkeysupersecretkey123456"

func newTokens(t *testing.T, cfg crypt.JWTConfig) *crypt.TokenService {
	t.Helper()
	if cfg.SigningKey == "" {
		cfg.SigningKey = testKey
	}
	s, err := crypt.NewTokenService(cfg)
	require.NoError(t, err)
	return s
}

func TestTokenService_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTokens(t, crypt.JWTConfig{Issuer: "authkeeper", Audience: "web"})

	token, err := s.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := s.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "user-123", userID)
}

// Токен несёт userId и exp = iat + 7 дней
func TestTokenService_Issue_Claims(t *testing.T) {
	t.Parallel()
	s := newTokens(t, crypt.JWTConfig{})
	require.Equal(t, crypt.DefaultTokenTTL, s.TTL())

	token, err := s.Issue("user-1")
	require.NoError(t, err)

	claims := &crypt.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tk *jwt.Token) (any, error) {
		require.Equal(t, jwt.SigningMethodHS256, tk.Method)
		return []byte(testKey), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, 7*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenService_Validate_Expired(t *testing.T) {
	t.Parallel()
	s := newTokens(t, crypt.JWTConfig{TTL: time.Hour})

	issuedAt := time.Now().Add(-2 * time.Hour)
	token, err := s.WithClock(func() time.Time { return issuedAt }).Issue("user-1")
	require.NoError(t, err)

	_, err = s.Validate(token)
	require.ErrorIs(t, err, serr.ErrInvalidToken)
}

// Ровно в момент exp токен уже недействителен
func TestTokenService_Validate_AtExpiry(t *testing.T) {
	t.Parallel()
	issuedAt := time.Unix(1_700_000_000, 0)
	s := newTokens(t, crypt.JWTConfig{TTL: time.Hour}).
		WithClock(func() time.Time { return issuedAt })

	token, err := s.Issue("user-1")
	require.NoError(t, err)

	atExpiry := s.WithClock(func() time.Time { return issuedAt.Add(time.Hour) })
	_, err = atExpiry.Validate(token)
	require.ErrorIs(t, err, serr.ErrInvalidToken)

	justBefore := s.WithClock(func() time.Time { return issuedAt.Add(time.Hour - time.Second) })
	userID, err := justBefore.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
}

func TestTokenService_Validate_TamperedSignature(t *testing.T) {
	t.Parallel()
	s := newTokens(t, crypt.JWTConfig{})

	token, err := s.Issue("user-1")
	require.NoError(t, err)

	// меняем первый символ подписи: все его биты значимые
	dot := strings.LastIndex(token, ".")
	replacement := "A"
	if token[dot+1] == 'A' {
		replacement = "B"
	}
	tampered := token[:dot+1] + replacement + token[dot+2:]

	_, err = s.Validate(tampered)
	require.ErrorIs(t, err, serr.ErrInvalidToken)
}

func TestTokenService_Validate_OtherKey(t *testing.T) {
	t.Parallel()
	issuer := newTokens(t, crypt.JWTConfig{SigningKey: "another-key-another-key-another-key"})
	verifier := newTokens(t, crypt.JWTConfig{})

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.ErrorIs(t, err, serr.ErrInvalidToken)
}

func TestTokenService_Validate_Malformed(t *testing.T) {
	t.Parallel()
	s := newTokens(t, crypt.JWTConfig{})

	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := s.Validate(token)
		require.ErrorIs(t, err, serr.ErrInvalidToken, token)
	}
}

// Подпись другим алгоритмом не принимается
func TestTokenService_Validate_WrongAlgorithm(t *testing.T) {
	t.Parallel()
	s := newTokens(t, crypt.JWTConfig{})

	claims := crypt.Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testKey))
	require.NoError(t, err)

	_, err = s.Validate(token)
	require.ErrorIs(t, err, serr.ErrInvalidToken)
}

func TestTokenService_Validate_MissingUserID(t *testing.T) {
	t.Parallel()
	s := newTokens(t, crypt.JWTConfig{})

	claims := crypt.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testKey))
	require.NoError(t, err)

	_, err = s.Validate(token)
	require.ErrorIs(t, err, serr.ErrInvalidToken)
}

func TestTokenService_Validate_WrongAudience(t *testing.T) {
	t.Parallel()
	issuer := newTokens(t, crypt.JWTConfig{Audience: "mobile"})
	verifier := newTokens(t, crypt.JWTConfig{Audience: "web"})

	token, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.ErrorIs(t, err, serr.ErrInvalidToken)
}

func TestNewTokenService_EmptyKey(t *testing.T) {
	_, err := crypt.NewTokenService(crypt.JWTConfig{SigningKey: "  "})
	require.Error(t, err)
}
