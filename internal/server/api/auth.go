// HTTP-хендлеры регистрации, логина, проверки токена и профиля
package api

import (
	"errors"
	"net/http"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/middleware"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/models"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/service"
	serr "github.com/IvanChernomyrdin/go-authkeeper/internal/shared/errors"
)

// Сообщения ответов. Клиенты сравнивают их как строки, менять нельзя.
const (
	MsgUserCreated     = "User created successfully"
	MsgLoginOK         = "Login successful"
	MsgProfileUpdated  = "Profile updated successfully"
	MsgUserExists      = "User already exists"
	MsgInvalidCreds    = "Invalid credentials"
	MsgInvalidInput    = "Invalid input"
	MsgInvalidJSON     = "Invalid JSON"
	MsgNoToken         = middleware.MsgNoToken
	MsgInvalidToken    = "Invalid token"
	MsgUserNotFound    = "User not found"
	MsgServerError     = "Server error"
	HealthStatusOK     = "ok"
	HealthStatusFailed = "unavailable"
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

// AuthResponse — успешный ответ register и login.
type AuthResponse struct {
	Message string               `json:"message"`
	Token   string               `json:"token"`
	User    models.PublicProfile `json:"user"`
}

// VerifyResponse — успешный ответ verify.
type VerifyResponse struct {
	User models.Profile `json:"user"`
}

// ProfileResponse — успешный ответ обновления профиля.
type ProfileResponse struct {
	Message string         `json:"message"`
	User    models.Profile `json:"user"`
}

// HealthResponse — ответ health-check.
type HealthResponse struct {
	Status string `json:"status"`
	Users  int    `json:"users"`
}

// Register обрабатывает регистрацию пользователя.
//
// Ответы:
//   - 201 Created: регистрация успешна, в ответе токен и публичный профиль;
//   - 400 Bad Request: неверный JSON, невалидные данные или email уже занят;
//   - 500 Internal Server Error: прочие ошибки.
//
// @Summary      Register user
// @Description  Creates a user and returns a bearer token valid for 7 days.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Register request"
// @Success      201 {object} AuthResponse
// @Failure      400 {object} ErrorResponse "User already exists, invalid input or bad JSON"
// @Failure      500 {object} ErrorResponse "Server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	res, err := h.Svc.Auth.Register(r.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Mobile:      req.Mobile,
		FullName:    req.FullName,
		ProfileName: req.ProfileName,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		switch {
		case errors.Is(err, serr.ErrAlreadyExists):
			WriteError(w, http.StatusBadRequest, MsgUserExists)
		case errors.Is(err, serr.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, MsgInvalidInput)
		default:
			h.writeServerError(w, "register", err)
		}
		return
	}

	WriteJSON(w, http.StatusCreated, AuthResponse{
		Message: MsgUserCreated,
		Token:   res.Token,
		User:    res.User,
	})
}

// Login обрабатывает вход пользователя.
//
// Ответы:
//   - 200 OK: успешный вход;
//   - 400 Bad Request: неверный JSON, пустые поля или неверные учётные данные;
//   - 500 Internal Server Error: прочие ошибки.
//
// @Summary      Login
// @Description  Checks credentials and returns a bearer token. Unknown email and wrong password give the same answer.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login request"
// @Success      200 {object} AuthResponse
// @Failure      400 {object} ErrorResponse "Invalid credentials"
// @Failure      500 {object} ErrorResponse "Server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	res, err := h.Svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, serr.ErrInvalidCredentials), errors.Is(err, serr.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, MsgInvalidCreds)
		default:
			h.writeServerError(w, "login", err)
		}
		return
	}

	WriteJSON(w, http.StatusOK, AuthResponse{
		Message: MsgLoginOK,
		Token:   res.Token,
		User:    res.User,
	})
}

// Verify возвращает профиль владельца bearer-токена.
//
// Ответы:
//   - 200 OK: {user} без хэша пароля;
//   - 401 Unauthorized: токена нет или он недействителен;
//   - 404 Not Found: пользователя из токена больше нет;
//   - 500 Internal Server Error: прочие ошибки.
//
// @Summary      Verify token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} VerifyResponse
// @Failure      401 {object} ErrorResponse "No token provided or invalid token"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Server error"
// @Router       /auth/verify [get]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, MsgNoToken)
		return
	}

	profile, err := h.Svc.Auth.Verify(r.Context(), token)
	if err != nil {
		h.writeAuthError(w, "verify", err)
		return
	}

	WriteJSON(w, http.StatusOK, VerifyResponse{User: profile})
}

// UpdateProfile частично обновляет профиль владельца токена.
//
// Ответы:
//   - 200 OK: {message, user} с объединённым профилем;
//   - 401 Unauthorized: токена нет или он недействителен (проверяется до чтения тела);
//   - 400 Bad Request: неверный JSON при валидном токене;
//   - 404 Not Found: пользователя из токена больше нет;
//   - 500 Internal Server Error: прочие ошибки.
//
// @Summary      Update profile
// @Description  fullName, profileName, mobile, dateOfBirth change only to non-empty values; bio, location, favoriteGenre change to any provided value including "".
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.ProfilePatch true "Profile patch"
// @Success      200 {object} ProfileResponse
// @Failure      400 {object} ErrorResponse "Invalid JSON"
// @Failure      401 {object} ErrorResponse "No token provided or invalid token"
// @Failure      404 {object} ErrorResponse "User not found"
// @Failure      500 {object} ErrorResponse "Server error"
// @Router       /auth/profile [put]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, MsgNoToken)
		return
	}

	// сначала токен, потом тело
	if _, err := h.Svc.Auth.Authenticate(token); err != nil {
		h.writeAuthError(w, "update profile", err)
		return
	}

	var patch models.ProfilePatch
	if err := h.decodeJSON(w, r, &patch); err != nil {
		WriteError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	profile, err := h.Svc.Auth.UpdateProfile(r.Context(), token, patch)
	if err != nil {
		h.writeAuthError(w, "update profile", err)
		return
	}

	WriteJSON(w, http.StatusOK, ProfileResponse{
		Message: MsgProfileUpdated,
		User:    profile,
	})
}

// Health сообщает, что сервер жив, и сколько пользователей в хранилище.
//
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	n, err := h.Svc.Auth.UserCount(r.Context())
	if err != nil {
		h.Log.Sugar().Errorw("health check failed", "error", err)
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: HealthStatusFailed})
		return
	}
	WriteJSON(w, http.StatusOK, HealthResponse{Status: HealthStatusOK, Users: n})
}

// writeAuthError маппит ошибки verify/update profile.
func (h *Handler) writeAuthError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, serr.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, MsgInvalidToken)
	case errors.Is(err, serr.ErrNotFound):
		WriteError(w, http.StatusNotFound, MsgUserNotFound)
	default:
		h.writeServerError(w, op, err)
	}
}
