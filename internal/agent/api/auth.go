// В этом файле описаны методы клиента для работы с эндпоинтами /api/auth:
// регистрация, вход, проверка токена и обновление профиля.
package api

import (
	"context"
	"time"
)

// Пути эндпоинтов сервера.
const (
	PathRegister = "/api/auth/register"
	PathLogin    = "/api/auth/login"
	PathVerify   = "/api/auth/verify"
	PathProfile  = "/api/auth/profile"
	PathHealth   = "/api/health"
)

// RegisterRequest описывает тело запроса регистрации пользователя.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Mobile      string `json:"mobile,omitempty"`
	FullName    string `json:"fullName,omitempty"`
	ProfileName string `json:"profileName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// LoginRequest описывает тело запроса входа пользователя.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PublicUser — минимальный профиль из ответов register и login.
type PublicUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	ProfileName string `json:"profileName"`
}

// AuthResponse — ответ register и login.
//
// Token используется для авторизации запросов к verify и profile.
type AuthResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    PublicUser `json:"user"`
}

// Profile — полный профиль пользователя без хэша пароля.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Mobile        string    `json:"mobile,omitempty"`
	FullName      string    `json:"fullName,omitempty"`
	ProfileName   string    `json:"profileName,omitempty"`
	DateOfBirth   string    `json:"dateOfBirth,omitempty"`
	Bio           *string   `json:"bio,omitempty"`
	Location      *string   `json:"location,omitempty"`
	FavoriteGenre *string   `json:"favoriteGenre,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ProfilePatch — частичное обновление профиля, nil поля не отправляются.
type ProfilePatch struct {
	FullName      *string `json:"fullName,omitempty"`
	ProfileName   *string `json:"profileName,omitempty"`
	Mobile        *string `json:"mobile,omitempty"`
	DateOfBirth   *string `json:"dateOfBirth,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	Location      *string `json:"location,omitempty"`
	FavoriteGenre *string `json:"favoriteGenre,omitempty"`
}

// ProfileResponse — ответ обновления профиля.
type ProfileResponse struct {
	Message string  `json:"message"`
	User    Profile `json:"user"`
}

// HealthResponse — ответ health-check.
type HealthResponse struct {
	Status string `json:"status"`
	Users  int    `json:"users"`
}

// Register регистрирует пользователя и возвращает токен.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var resp AuthResponse
	err := c.PostJSON(ctx, PathRegister, req, &resp, "")
	return resp, err
}

// Login выполняет вход пользователя и возвращает токен.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var resp AuthResponse
	err := c.PostJSON(ctx, PathLogin, LoginRequest{Email: email, Password: password}, &resp, "")
	return resp, err
}

// Verify проверяет токен и возвращает профиль его владельца.
func (c *Client) Verify(ctx context.Context, token string) (Profile, error) {
	var resp struct {
		User Profile `json:"user"`
	}
	err := c.GetJSON(ctx, PathVerify, &resp, token)
	return resp.User, err
}

// UpdateProfile отправляет частичное обновление профиля.
func (c *Client) UpdateProfile(ctx context.Context, token string, patch ProfilePatch) (ProfileResponse, error) {
	var resp ProfileResponse
	err := c.PutJSON(ctx, PathProfile, patch, &resp, token)
	return resp, err
}

// Health запрашивает состояние сервера.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.GetJSON(ctx, PathHealth, &resp, "")
	return resp, err
}
