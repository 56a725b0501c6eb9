package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/models"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/repository"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/service"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/service/mocks"
	serr "github.com/IvanChernomyrdin/go-authkeeper/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/shared/utils"
)

const testKey = "supersecretkeysupersecretkey123456"

func testTokens(t *testing.T) *crypto.TokenService {
	t.Helper()
	ts, err := crypto.NewTokenService(crypto.JWTConfig{SigningKey: testKey})
	require.NoError(t, err)
	return ts
}

func testHasher() crypto.PasswordHasher {
	return crypto.BcryptHasher{Cost: bcrypt.MinCost}
}

// создаём сервис на моке хранилища
func newAuthService(t *testing.T) (*service.AuthService, *mocks.MockUsersRepo) {
	t.Helper()

	ctrl := gomock.NewController(t)
	users := mocks.NewMockUsersRepo(ctrl)

	return service.NewAuthService(users, testHasher(), testTokens(t)), users
}

// создаём сервис на настоящем in-memory хранилище
func newMemoryAuthService(t *testing.T) (*service.AuthService, *repository.MemoryUsersRepository) {
	t.Helper()

	repo := repository.NewMemoryUsersRepository()
	return service.NewAuthService(repo, testHasher(), testTokens(t)), repo
}

// Успешная регистрация
func TestAuthService_Register_OK(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return created })

	users.EXPECT().
		FindByEmail(ctx, "a@example.com").
		Return(models.User{}, serr.ErrNotFound)

	var stored models.User
	users.EXPECT().
		Insert(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, u models.User) (models.User, error) {
			stored = u
			return u, nil
		})

	res, err := svc.Register(ctx, service.RegisterInput{
		Email:       "a@example.com",
		Password:    "secret",
		ProfileName: "alice",
		FullName:    "Alice A",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, models.PublicProfile{ID: stored.ID, Email: "a@example.com", ProfileName: "alice"}, res.User)

	require.NotEmpty(t, stored.ID)
	require.Equal(t, created, stored.CreatedAt)
	require.Equal(t, "Alice A", stored.FullName)
	require.NotEqual(t, "secret", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret")))
	require.Nil(t, stored.Bio)
}

// Повторная регистрация того же email
func TestAuthService_Register_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	users.EXPECT().
		FindByEmail(ctx, "a@example.com").
		Return(models.User{ID: "u1", Email: "a@example.com"}, nil)

	_, err := svc.Register(ctx, service.RegisterInput{Email: "a@example.com", Password: "secret"})
	require.ErrorIs(t, err, serr.ErrAlreadyExists)
}

// Гонка: проверка прошла, но Insert нашёл дубликат
func TestAuthService_Register_DuplicateOnInsert(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	users.EXPECT().
		FindByEmail(ctx, "a@example.com").
		Return(models.User{}, serr.ErrNotFound)
	users.EXPECT().
		Insert(ctx, gomock.Any()).
		Return(models.User{}, serr.ErrAlreadyExists)

	_, err := svc.Register(ctx, service.RegisterInput{Email: "a@example.com", Password: "secret"})
	require.ErrorIs(t, err, serr.ErrAlreadyExists)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	cases := map[string]service.RegisterInput{
		"empty email":       {Password: "secret"},
		"bad email":         {Email: "not-an-email", Password: "secret"},
		"empty password":    {Email: "a@example.com"},
		"password too long": {Email: "a@example.com", Password: strings.Repeat("x", 73)},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			// репозиторий вызываться не должен
			svc, _ := newAuthService(t)

			_, err := svc.Register(context.Background(), in)
			require.ErrorIs(t, err, serr.ErrInvalidInput)
		})
	}
}

// Граница пароля в байтах, а не в символах: до 72 байт регистрация проходит,
// дальше это ErrInvalidInput, но не ErrInternal от bcrypt
func TestAuthService_Register_PasswordByteLimit(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"72 ascii bytes", strings.Repeat("x", 72), nil},
		{"73 ascii bytes", strings.Repeat("x", 73), serr.ErrInvalidInput},
		{"36 cyrillic runes = 72 bytes", strings.Repeat("я", 36), nil},
		{"37 cyrillic runes = 74 bytes", strings.Repeat("я", 37), serr.ErrInvalidInput},
		{"40 cyrillic runes = 80 bytes", strings.Repeat("я", 40), serr.ErrInvalidInput},
		{"18 emoji = 72 bytes", strings.Repeat("🔑", 18), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, repo := newMemoryAuthService(t)

			_, err := svc.Register(ctx, service.RegisterInput{Email: "a@example.com", Password: tt.password})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.NotErrorIs(t, err, serr.ErrInternal)

				n, err := repo.Count(ctx)
				require.NoError(t, err)
				require.Zero(t, n)
				return
			}
			require.NoError(t, err)

			_, err = svc.Login(ctx, "a@example.com", tt.password)
			require.NoError(t, err)
		})
	}
}

func TestAuthService_Register_StoreFailure(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	users.EXPECT().
		FindByEmail(ctx, "a@example.com").
		Return(models.User{}, errors.New("disk is gone"))

	_, err := svc.Register(ctx, service.RegisterInput{Email: "a@example.com", Password: "secret"})
	require.ErrorIs(t, err, serr.ErrInternal)
}

func TestAuthService_Register_InsertFailure(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	users.EXPECT().FindByEmail(ctx, "a@example.com").Return(models.User{}, serr.ErrNotFound)
	users.EXPECT().Insert(ctx, gomock.Any()).Return(models.User{}, serr.ErrInternal)

	_, err := svc.Register(ctx, service.RegisterInput{Email: "a@example.com", Password: "secret"})
	require.ErrorIs(t, err, serr.ErrInternal)
}

// Второй register того же email: в хранилище ровно одна запись
func TestAuthService_Register_TwiceKeepsOneRecord(t *testing.T) {
	ctx := context.Background()
	svc, repo := newMemoryAuthService(t)

	_, err := svc.Register(ctx, service.RegisterInput{Email: "a@example.com", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, service.RegisterInput{Email: "a@example.com", Password: "other"})
	require.ErrorIs(t, err, serr.ErrAlreadyExists)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

// Успешный вход
func TestAuthService_Login_OK(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	hash, err := testHasher().Hash("secret")
	require.NoError(t, err)

	users.EXPECT().
		FindByEmail(ctx, "a@example.com").
		Return(models.User{ID: "u1", Email: "a@example.com", PasswordHash: hash, ProfileName: "alice"}, nil)

	res, err := svc.Login(ctx, "a@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, models.PublicProfile{ID: "u1", Email: "a@example.com", ProfileName: "alice"}, res.User)

	userID, err := testTokens(t).Validate(res.Token)
	require.NoError(t, err)
	require.Equal(t, "u1", userID)
}

// Неверный пароль и несуществующий email неразличимы
func TestAuthService_Login_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	hash, err := testHasher().Hash("correct-password")
	require.NoError(t, err)

	users.EXPECT().
		FindByEmail(ctx, "a@example.com").
		Return(models.User{ID: "u1", Email: "a@example.com", PasswordHash: hash}, nil)
	users.EXPECT().
		FindByEmail(ctx, "ghost@example.com").
		Return(models.User{}, serr.ErrNotFound)

	_, errWrong := svc.Login(ctx, "a@example.com", "wrong-password")
	_, errUnknown := svc.Login(ctx, "ghost@example.com", "whatever")

	require.ErrorIs(t, errWrong, serr.ErrInvalidCredentials)
	require.ErrorIs(t, errUnknown, serr.ErrInvalidCredentials)
	require.Equal(t, errWrong.Error(), errUnknown.Error())
}

// Email сравнивается точно
func TestAuthService_Login_EmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryAuthService(t)

	_, err := svc.Register(ctx, service.RegisterInput{Email: "Alice@Example.com", Password: "secret"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "secret")
	require.ErrorIs(t, err, serr.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "Alice@Example.com", "secret")
	require.NoError(t, err)
}

func TestAuthService_Login_EmptyInput(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Login(context.Background(), "", "secret")
	require.ErrorIs(t, err, serr.ErrInvalidInput)

	_, err = svc.Login(context.Background(), "a@example.com", "")
	require.ErrorIs(t, err, serr.ErrInvalidInput)
}

// Пароль длиннее предела bcrypt не мог быть зарегистрирован
func TestAuthService_Login_PasswordOverByteLimit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryAuthService(t)

	_, err := svc.Register(ctx, service.RegisterInput{Email: "a@example.com", Password: strings.Repeat("я", 36)})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@example.com", strings.Repeat("я", 40))
	require.ErrorIs(t, err, serr.ErrInvalidCredentials)
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, _ := newAuthService(t)

	token, err := testTokens(t).Issue("u1")
	require.NoError(t, err)

	userID, err := svc.Authenticate(" " + token + " ")
	require.NoError(t, err)
	require.Equal(t, "u1", userID)

	_, err = svc.Authenticate("")
	require.ErrorIs(t, err, serr.ErrUnauthorized)

	_, err = svc.Authenticate("garbage")
	require.ErrorIs(t, err, serr.ErrUnauthorized)
	require.ErrorIs(t, err, serr.ErrInvalidToken)
}

// Битый хэш в хранилище — внутренняя ошибка, а не "неверный пароль"
func TestAuthService_Login_CorruptedHash(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	users.EXPECT().
		FindByEmail(ctx, "a@example.com").
		Return(models.User{ID: "u1", Email: "a@example.com", PasswordHash: "$2a$broken"}, nil)

	_, err := svc.Login(ctx, "a@example.com", "secret")
	require.ErrorIs(t, err, serr.ErrInternal)
}

func TestAuthService_Verify_OK(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	token, err := testTokens(t).Issue("u1")
	require.NoError(t, err)

	users.EXPECT().
		FindByID(ctx, "u1").
		Return(models.User{ID: "u1", Email: "a@example.com", PasswordHash: "hash", Location: utils.Ptr("NY")}, nil)

	p, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "u1", p.ID)
	require.Equal(t, "NY", *p.Location)
}

func TestAuthService_Verify_Unauthorized(t *testing.T) {
	expired, err := testTokens(t).
		WithClock(func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }).
		Issue("u1")
	require.NoError(t, err)

	otherKey, err := crypto.NewTokenService(crypto.JWTConfig{SigningKey: "another-key-another-key-another-key"})
	require.NoError(t, err)
	foreign, err := otherKey.Issue("u1")
	require.NoError(t, err)

	cases := map[string]string{
		"empty":     "",
		"blank":     "   ",
		"malformed": "not.a.jwt",
		"expired":   expired,
		"foreign":   foreign,
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _ := newAuthService(t)

			_, err := svc.Verify(context.Background(), token)
			require.ErrorIs(t, err, serr.ErrUnauthorized)
		})
	}
}

// Токен валиден, но пользователя уже нет
func TestAuthService_Verify_UserGone(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	token, err := testTokens(t).Issue("u1")
	require.NoError(t, err)

	users.EXPECT().FindByID(ctx, "u1").Return(models.User{}, serr.ErrNotFound)

	_, err = svc.Verify(ctx, token)
	require.ErrorIs(t, err, serr.ErrNotFound)
}

func TestAuthService_UpdateProfile_Unauthorized(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.UpdateProfile(context.Background(), "", models.ProfilePatch{})
	require.ErrorIs(t, err, serr.ErrUnauthorized)

	_, err = svc.UpdateProfile(context.Background(), "garbage", models.ProfilePatch{})
	require.ErrorIs(t, err, serr.ErrUnauthorized)
}

func TestAuthService_UpdateProfile_UserGone(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	token, err := testTokens(t).Issue("u1")
	require.NoError(t, err)

	users.EXPECT().Update(ctx, "u1", gomock.Any()).Return(models.User{}, serr.ErrNotFound)

	_, err = svc.UpdateProfile(ctx, token, models.ProfilePatch{FullName: utils.Ptr("B")})
	require.ErrorIs(t, err, serr.ErrNotFound)
}

func TestAuthService_UpdateProfile_StoreFailure(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	token, err := testTokens(t).Issue("u1")
	require.NoError(t, err)

	users.EXPECT().Update(ctx, "u1", gomock.Any()).Return(models.User{}, errors.New("write failed"))

	_, err = svc.UpdateProfile(ctx, token, models.ProfilePatch{})
	require.ErrorIs(t, err, serr.ErrInternal)
}

// Слияние через Update мока: fn применяется к текущей записи
func TestAuthService_UpdateProfile_AppliesMerge(t *testing.T) {
	ctx := context.Background()
	svc, users := newAuthService(t)

	token, err := testTokens(t).Issue("u1")
	require.NoError(t, err)

	current := models.User{ID: "u1", Email: "a@example.com", PasswordHash: "hash", FullName: "A", Bio: utils.Ptr("old")}

	users.EXPECT().
		Update(ctx, "u1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, fn func(models.User) (models.User, error)) (models.User, error) {
			return fn(current)
		})

	p, err := svc.UpdateProfile(ctx, token, models.ProfilePatch{FullName: utils.Ptr(""), Bio: utils.Ptr("")})
	require.NoError(t, err)
	require.Equal(t, "A", p.FullName)
	require.NotNil(t, p.Bio)
	require.Equal(t, "", *p.Bio)
}

func TestMergeProfile(t *testing.T) {
	t.Run("empty string ignored for truthy group, accepted for present group", func(t *testing.T) {
		u := models.User{FullName: "A", Bio: utils.Ptr("old")}
		got := service.MergeProfile(u, models.ProfilePatch{FullName: utils.Ptr(""), Bio: utils.Ptr("")})

		require.Equal(t, "A", got.FullName)
		require.NotNil(t, got.Bio)
		require.Equal(t, "", *got.Bio)
	})

	t.Run("absent field leaves value", func(t *testing.T) {
		u := models.User{Location: utils.Ptr("NY")}
		got := service.MergeProfile(u, models.ProfilePatch{})

		require.NotNil(t, got.Location)
		require.Equal(t, "NY", *got.Location)
	})

	t.Run("non-empty values replace both groups", func(t *testing.T) {
		u := models.User{
			FullName: "A", ProfileName: "a", Mobile: "1", DateOfBirth: "2000-01-01",
			Bio: utils.Ptr("b"), Location: utils.Ptr("l"), FavoriteGenre: utils.Ptr("g"),
		}
		got := service.MergeProfile(u, models.ProfilePatch{
			FullName:      utils.Ptr("B"),
			ProfileName:   utils.Ptr("b2"),
			Mobile:        utils.Ptr("2"),
			DateOfBirth:   utils.Ptr("1999-12-31"),
			Bio:           utils.Ptr("b2"),
			Location:      utils.Ptr("l2"),
			FavoriteGenre: utils.Ptr("g2"),
		})

		require.Equal(t, "B", got.FullName)
		require.Equal(t, "b2", got.ProfileName)
		require.Equal(t, "2", got.Mobile)
		require.Equal(t, "1999-12-31", got.DateOfBirth)
		require.Equal(t, "b2", *got.Bio)
		require.Equal(t, "l2", *got.Location)
		require.Equal(t, "g2", *got.FavoriteGenre)
	})

	t.Run("previously unset field becomes set", func(t *testing.T) {
		got := service.MergeProfile(models.User{}, models.ProfilePatch{FavoriteGenre: utils.Ptr("")})
		require.NotNil(t, got.FavoriteGenre)
		require.Equal(t, "", *got.FavoriteGenre)
	})

	t.Run("patch pointer is not aliased", func(t *testing.T) {
		v := "mine"
		got := service.MergeProfile(models.User{}, models.ProfilePatch{Bio: &v})
		v = "changed"
		require.Equal(t, "mine", *got.Bio)
	})
}

// Полный сценарий на настоящем хранилище
func TestAuthService_FullSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemoryAuthService(t)

	reg, err := svc.Register(ctx, service.RegisterInput{
		Email:       "a@example.com",
		Password:    "secret",
		FullName:    "A",
		ProfileName: "alice",
	})
	require.NoError(t, err)

	login, err := svc.Login(ctx, "a@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, reg.User, login.User)

	p, err := svc.Verify(ctx, login.Token)
	require.NoError(t, err)
	require.Equal(t, "A", p.FullName)
	require.Nil(t, p.Bio)

	_, err = svc.UpdateProfile(ctx, login.Token, models.ProfilePatch{
		FullName: utils.Ptr(""),
		Bio:      utils.Ptr("hello"),
		Location: utils.Ptr("NY"),
	})
	require.NoError(t, err)

	p, err = svc.Verify(ctx, login.Token)
	require.NoError(t, err)
	require.Equal(t, "A", p.FullName)
	require.Equal(t, "alice", p.ProfileName)
	require.Equal(t, "hello", *p.Bio)
	require.Equal(t, "NY", *p.Location)
	require.Nil(t, p.FavoriteGenre)
}
