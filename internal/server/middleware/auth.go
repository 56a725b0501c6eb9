// Package middleware содержит HTTP middleware сервера.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ctxKey используется как тип ключа для хранения значений в context.Context.
// Отдельный тип предотвращает коллизии ключей между пакетами.
type ctxKey string

// tokenKey — ключ контекста, под которым хранится bearer-токен запроса.
const tokenKey ctxKey = "bearer_token"

// MsgNoToken — ответ, когда заголовок Authorization отсутствует или пуст.
const MsgNoToken = "No token provided"

// TokenFromContext извлекает bearer-токен, сохранённый RequireBearer.
//
// Возвращает:
//   - токен
//   - false, если токена в контексте нет
func TokenFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(tokenKey)
	s, ok := v.(string)
	return s, ok && s != ""
}

// WithToken кладёт токен в контекст.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// RequireBearer возвращает middleware, которое требует заголовок Authorization: Bearer <token>.
//
// Middleware только извлекает токен и кладёт его в context.Context,
// подпись и срок проверяет сервисный слой.
// Если токена нет — HTTP 401 {"message":"No token provided"}.
func RequireBearer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearer(r.Header.Get("Authorization"))
			if token == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": MsgNoToken})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithToken(r.Context(), token)))
		})
	}
}

// ExtractBearer извлекает токен из заголовка Authorization.
//
// Ожидаемый формат:
//
//	Authorization: Bearer <token>
//
// Возвращает пустую строку, если формат некорректен.
func ExtractBearer(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
