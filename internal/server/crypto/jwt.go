// Package crypto содержит криптографические примитивы сервера AuthKeeper.
//
// В частности, пакет отвечает за:
//   - хэширование и проверку паролей (bcrypt, argon2id);
//   - выпуск и проверку JWT bearer-токенов (HS256, срок жизни, claim userId).
package crypto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	serr "github.com/IvanChernomyrdin/go-authkeeper/internal/shared/errors"
)

// DefaultTokenTTL — срок жизни токена по умолчанию (7 дней).
const DefaultTokenTTL = 7 * 24 * time.Hour

// JWTConfig описывает параметры выпуска и проверки токена.
type JWTConfig struct {
	// Issuer — значение поля iss (опционально).
	Issuer string
	// Audience — значение поля aud (опционально).
	Audience string
	// SigningKey — секретный ключ для подписи токена (HS256).
	SigningKey string
	// TTL — срок жизни токена, 0 значит DefaultTokenTTL.
	TTL time.Duration
}

// Claims — содержимое токена: userId плюс стандартные поля.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService — единственный компонент, который собирает и разбирает токены.
type TokenService struct {
	cfg JWTConfig
	now func() time.Time
}

// NewTokenService создаёт TokenService. Пустой ключ подписи — ошибка конфигурации.
func NewTokenService(cfg JWTConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.SigningKey) == "" {
		return nil, errors.New("jwt signing key is empty")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	return &TokenService{cfg: cfg, now: time.Now}, nil
}

// WithClock подменяет источник времени (нужно тестам на истечение срока).
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// TTL возвращает срок жизни выпускаемых токенов.
func (s *TokenService) TTL() time.Duration {
	return s.cfg.TTL
}

// Issue создаёт и подписывает токен для пользователя.
//
// Токен содержит userId, sub, iat, exp = iat + TTL и, если заданы, iss/aud.
func (s *TokenService) Issue(userID string) (string, error) {
	now := s.now()

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.cfg.SigningKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate проверяет подпись, алгоритм, срок и возвращает userId.
//
// Любая проблема (битый формат, чужая подпись, истёкший exp) — ErrInvalidToken.
func (s *TokenService) Validate(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}

	claims := &Claims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.SigningKey), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", serr.ErrInvalidToken, err)
	}

	// jwt считает токен живым, пока now <= exp; нам нужно строго now < exp
	if !s.now().Before(claims.ExpiresAt.Time) {
		return "", fmt.Errorf("%w: token expired", serr.ErrInvalidToken)
	}

	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		return "", fmt.Errorf("%w: empty userId", serr.ErrInvalidToken)
	}
	return userID, nil
}
