package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-authkeeper/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/shared/utils"
)

// AuthService реализует регистрацию, вход, проверку токена и обновление профиля.
//
// Хранилище, хэшер и выпуск токенов передаются явно при создании,
// глобального состояния у сервиса нет.
type AuthService struct {
	users  UsersRepo
	hasher crypto.PasswordHasher
	tokens *crypto.TokenService

	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// MaxPasswordBytes — предел bcrypt на длину пароля в байтах (не в символах).
const MaxPasswordBytes = 72

// RegisterInput — данные регистрации.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,maxbytes=72"`
	Mobile      string `json:"mobile,omitempty"`
	FullName    string `json:"fullName,omitempty"`
	ProfileName string `json:"profileName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

// LoginInput — данные входа.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult — результат register и login.
type AuthResult struct {
	Token string
	User  models.PublicProfile
}

// NewAuthService создаёт AuthService.
func NewAuthService(users UsersRepo, hasher crypto.PasswordHasher, tokens *crypto.TokenService) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		validate: newValidator(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// newValidator добавляет к стандартным правилам maxbytes=N.
// Встроенный max для строк считает руны, а bcrypt ограничивает байты.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// WithClock подменяет источник времени для CreatedAt.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Register регистрирует нового пользователя и сразу выдаёт ему токен.
//
// Email хранится как передан, без приведения регистра.
//
// Ошибки:
//   - ErrInvalidInput при некорректных данных
//   - ErrAlreadyExists если email уже зарегистрирован
//   - ErrInternal если не удалось захэшировать пароль, сохранить запись или выпустить токен
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := s.validate.StructCtx(ctx, in); err != nil {
		return AuthResult{}, fmt.Errorf("%w: %v", serr.ErrInvalidInput, err)
	}

	// быстрый отказ до дорогого хэширования
	_, err := s.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return AuthResult{}, serr.ErrAlreadyExists
	case !errors.Is(err, serr.ErrNotFound):
		return AuthResult{}, internal("find user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, internal("hash password", err)
	}

	u := models.User{
		ID:           s.newID(),
		Email:        in.Email,
		PasswordHash: hash,
		Mobile:       in.Mobile,
		FullName:     in.FullName,
		ProfileName:  in.ProfileName,
		DateOfBirth:  in.DateOfBirth,
		CreatedAt:    s.now().UTC(),
	}

	// окончательная проверка уникальности внутри Insert
	saved, err := s.users.Insert(ctx, u)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return AuthResult{}, serr.ErrAlreadyExists
		}
		return AuthResult{}, internal("insert user", err)
	}

	return s.issue(saved)
}

// Login проверяет пароль и выдаёт токен.
//
// Поведение:
//   - не раскрывает факт существования email: нет пользователя и неверный пароль
//     дают одну и ту же ErrInvalidCredentials
//
// Ошибки:
//   - ErrInvalidInput если email или пароль пусты
//   - ErrInvalidCredentials
//   - ErrInternal
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if err := s.validate.StructCtx(ctx, LoginInput{Email: email, Password: password}); err != nil {
		return AuthResult{}, fmt.Errorf("%w: %v", serr.ErrInvalidInput, err)
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return AuthResult{}, serr.ErrInvalidCredentials
		}
		return AuthResult{}, internal("find user", err)
	}

	// такой пароль не мог пройти регистрацию
	if len(password) > MaxPasswordBytes {
		return AuthResult{}, serr.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		return AuthResult{}, internal("verify password", err)
	}
	if !ok {
		return AuthResult{}, serr.ErrInvalidCredentials
	}

	return s.issue(u)
}

// Verify проверяет bearer-токен и возвращает профиль его владельца.
//
// Ошибки:
//   - ErrUnauthorized если токен пуст
//   - ErrUnauthorized (обёрнутая ErrInvalidToken) если токен не прошёл проверку
//   - ErrNotFound если пользователя из токена больше нет
func (s *AuthService) Verify(ctx context.Context, token string) (models.Profile, error) {
	userID, err := s.authenticate(token)
	if err != nil {
		return models.Profile{}, err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return models.Profile{}, serr.ErrNotFound
		}
		return models.Profile{}, internal("find user", err)
	}
	return u.Profile(), nil
}

// UpdateProfile частично обновляет профиль владельца токена.
//
// fullName, profileName, mobile, dateOfBirth заменяются только непустым значением.
// bio, location, favoriteGenre заменяются любым переданным значением, включая "".
// Слияние и запись выполняются одной операцией хранилища.
//
// Ошибки: те же, что у Verify, плюс ErrInternal при сбое записи.
func (s *AuthService) UpdateProfile(ctx context.Context, token string, patch models.ProfilePatch) (models.Profile, error) {
	userID, err := s.authenticate(token)
	if err != nil {
		return models.Profile{}, err
	}

	u, err := s.users.Update(ctx, userID, func(cur models.User) (models.User, error) {
		return MergeProfile(cur, patch), nil
	})
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return models.Profile{}, serr.ErrNotFound
		}
		return models.Profile{}, internal("update user", err)
	}
	return u.Profile(), nil
}

// UserCount возвращает число зарегистрированных пользователей (для health-check).
func (s *AuthService) UserCount(ctx context.Context) (int, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return 0, internal("count users", err)
	}
	return n, nil
}

// MergeProfile применяет patch к записи u и возвращает результат.
func MergeProfile(u models.User, patch models.ProfilePatch) models.User {
	u.FullName = replaceIfTruthy(u.FullName, patch.FullName)
	u.ProfileName = replaceIfTruthy(u.ProfileName, patch.ProfileName)
	u.Mobile = replaceIfTruthy(u.Mobile, patch.Mobile)
	u.DateOfBirth = replaceIfTruthy(u.DateOfBirth, patch.DateOfBirth)

	u.Bio = replaceIfPresent(u.Bio, patch.Bio)
	u.Location = replaceIfPresent(u.Location, patch.Location)
	u.FavoriteGenre = replaceIfPresent(u.FavoriteGenre, patch.FavoriteGenre)
	return u
}

// replaceIfTruthy: отсутствующее поле и пустая строка не меняют значение.
func replaceIfTruthy(old string, next *string) string {
	if next == nil || *next == "" {
		return old
	}
	return *next
}

// replaceIfPresent: меняет значение, если поле вообще пришло.
func replaceIfPresent(old, next *string) *string {
	if next == nil {
		return old
	}
	return utils.Ptr(*next)
}

// Authenticate проверяет bearer-токен и возвращает id пользователя.
//
// Ошибки: ErrUnauthorized (для невалидного токена обёрнута вместе с ErrInvalidToken).
func (s *AuthService) Authenticate(token string) (string, error) {
	return s.authenticate(token)
}

func (s *AuthService) authenticate(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", serr.ErrUnauthorized
	}
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", serr.ErrUnauthorized, err)
	}
	return userID, nil
}

func (s *AuthService) issue(u models.User) (AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return AuthResult{}, internal("issue token", err)
	}
	return AuthResult{Token: token, User: u.Public()}, nil
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", serr.ErrInternal, op, err)
}
