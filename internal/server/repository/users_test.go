package repository_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/models"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/repository"
	serr "github.com/IvanChernomyrdin/go-authkeeper/internal/shared/errors"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/shared/utils"
)

// usersStore — общий контракт обоих бэкендов
type usersStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Insert(ctx context.Context, u models.User) (models.User, error)
	Replace(ctx context.Context, id string, u models.User) (models.User, error)
	Update(ctx context.Context, id string, fn func(models.User) (models.User, error)) (models.User, error)
	Count(ctx context.Context) (int, error)
}

func backends(t *testing.T) map[string]func() usersStore {
	t.Helper()
	return map[string]func() usersStore{
		"memory": func() usersStore { return repository.NewMemoryUsersRepository() },
		"file": func() usersStore {
			r, err := repository.NewFileUsersRepository(filepath.Join(t.TempDir(), "users.json"), nil)
			require.NoError(t, err)
			return r
		},
	}
}

func newUser(id, email string) models.User {
	return models.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash-" + id,
		ProfileName:  "profile-" + id,
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestUsersRepository_InsertAndFind(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := mk()

			u := newUser("u1", "a@example.com")
			got, err := repo.Insert(ctx, u)
			require.NoError(t, err)
			require.Equal(t, u, got)

			byEmail, err := repo.FindByEmail(ctx, "a@example.com")
			require.NoError(t, err)
			require.Equal(t, u, byEmail)

			byID, err := repo.FindByID(ctx, "u1")
			require.NoError(t, err)
			require.Equal(t, u, byID)

			n, err := repo.Count(ctx)
			require.NoError(t, err)
			require.Equal(t, 1, n)
		})
	}
}

func TestUsersRepository_NotFound(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := mk()

			_, err := repo.FindByEmail(ctx, "nobody@example.com")
			require.ErrorIs(t, err, serr.ErrNotFound)

			_, err = repo.FindByID(ctx, "nope")
			require.ErrorIs(t, err, serr.ErrNotFound)

			_, err = repo.Replace(ctx, "nope", newUser("nope", "x@example.com"))
			require.ErrorIs(t, err, serr.ErrNotFound)

			_, err = repo.Update(ctx, "nope", func(u models.User) (models.User, error) { return u, nil })
			require.ErrorIs(t, err, serr.ErrNotFound)
		})
	}
}

// Email сравнивается точно: регистр имеет значение
func TestUsersRepository_EmailExactMatch(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := mk()

			_, err := repo.Insert(ctx, newUser("u1", "Case@Example.com"))
			require.NoError(t, err)

			_, err = repo.FindByEmail(ctx, "case@example.com")
			require.ErrorIs(t, err, serr.ErrNotFound)

			_, err = repo.Insert(ctx, newUser("u2", "case@example.com"))
			require.NoError(t, err)
		})
	}
}

func TestUsersRepository_InsertDuplicate(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := mk()

			_, err := repo.Insert(ctx, newUser("u1", "a@example.com"))
			require.NoError(t, err)

			_, err = repo.Insert(ctx, newUser("u2", "a@example.com"))
			require.ErrorIs(t, err, serr.ErrAlreadyExists)

			_, err = repo.Insert(ctx, newUser("u1", "b@example.com"))
			require.ErrorIs(t, err, serr.ErrAlreadyExists)

			n, err := repo.Count(ctx)
			require.NoError(t, err)
			require.Equal(t, 1, n)
		})
	}
}

// Replace сохраняет позицию, ID и CreatedAt
func TestUsersRepository_Replace(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := mk()

			first := newUser("u1", "a@example.com")
			_, err := repo.Insert(ctx, first)
			require.NoError(t, err)
			_, err = repo.Insert(ctx, newUser("u2", "b@example.com"))
			require.NoError(t, err)

			upd := first
			upd.ID = "forged"
			upd.CreatedAt = time.Now()
			upd.FullName = "Alice"
			upd.Bio = utils.Ptr("")

			got, err := repo.Replace(ctx, "u1", upd)
			require.NoError(t, err)
			require.Equal(t, "u1", got.ID)
			require.Equal(t, first.CreatedAt, got.CreatedAt)
			require.Equal(t, "Alice", got.FullName)
			require.NotNil(t, got.Bio)
			require.Equal(t, "", *got.Bio)

			stored, err := repo.FindByID(ctx, "u1")
			require.NoError(t, err)
			require.Equal(t, got, stored)

			_, err = repo.FindByID(ctx, "forged")
			require.ErrorIs(t, err, serr.ErrNotFound)
		})
	}
}

func TestUsersRepository_Replace_EmailTaken(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := mk()

			_, err := repo.Insert(ctx, newUser("u1", "a@example.com"))
			require.NoError(t, err)
			_, err = repo.Insert(ctx, newUser("u2", "b@example.com"))
			require.NoError(t, err)

			_, err = repo.Replace(ctx, "u2", newUser("u2", "a@example.com"))
			require.ErrorIs(t, err, serr.ErrAlreadyExists)
		})
	}
}

func TestUsersRepository_Update(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := mk()

			_, err := repo.Insert(ctx, newUser("u1", "a@example.com"))
			require.NoError(t, err)

			got, err := repo.Update(ctx, "u1", func(u models.User) (models.User, error) {
				u.Location = utils.Ptr("NY")
				return u, nil
			})
			require.NoError(t, err)
			require.Equal(t, "NY", *got.Location)

			// ошибка из fn ничего не меняет
			boom := fmt.Errorf("boom")
			_, err = repo.Update(ctx, "u1", func(u models.User) (models.User, error) {
				u.Location = utils.Ptr("LA")
				return u, boom
			})
			require.ErrorIs(t, err, boom)

			stored, err := repo.FindByID(ctx, "u1")
			require.NoError(t, err)
			require.Equal(t, "NY", *stored.Location)
		})
	}
}

// Снаружи отдаются копии, а не живые записи
func TestUsersRepository_ReturnsCopies(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := mk()

			u := newUser("u1", "a@example.com")
			u.Bio = utils.Ptr("original")
			_, err := repo.Insert(ctx, u)
			require.NoError(t, err)

			*u.Bio = "mutated by caller"

			got, err := repo.FindByID(ctx, "u1")
			require.NoError(t, err)
			*got.Bio = "mutated again"
			got.FullName = "changed"

			stored, err := repo.FindByID(ctx, "u1")
			require.NoError(t, err)
			require.Equal(t, "original", *stored.Bio)
			require.Empty(t, stored.FullName)
		})
	}
}

// Параллельные регистрации одного email: ровно одна успешна
func TestUsersRepository_ConcurrentInsertSameEmail(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := mk()

			const n = 20
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				success int
			)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := repo.Insert(ctx, newUser(fmt.Sprintf("u%d", i), "same@example.com"))
					if err == nil {
						mu.Lock()
						success++
						mu.Unlock()
					}
				}(i)
			}
			wg.Wait()

			require.Equal(t, 1, success)
			count, err := repo.Count(ctx)
			require.NoError(t, err)
			require.Equal(t, 1, count)
		})
	}
}

// Параллельные вставки разных email не теряют друг друга
func TestUsersRepository_ConcurrentInsertNoLostUpdate(t *testing.T) {
	for name, mk := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := mk()

			const n = 25
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, err := repo.Insert(ctx, newUser(fmt.Sprintf("u%d", i), fmt.Sprintf("u%d@example.com", i)))
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			count, err := repo.Count(ctx)
			require.NoError(t, err)
			require.Equal(t, n, count)
		})
	}
}

func TestFileUsersRepository_PersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "users.json")

	repo, err := repository.NewFileUsersRepository(path, nil)
	require.NoError(t, err)
	require.Equal(t, path, repo.Path())

	_, err = repo.Insert(ctx, newUser("u1", "a@example.com"))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newUser("u2", "b@example.com"))
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var dump repository.UsersDump
	require.NoError(t, json.Unmarshal(b, &dump))
	require.Len(t, dump.Users, 2)
	require.Equal(t, "u1", dump.Users[0].ID)
	require.Equal(t, "u2", dump.Users[1].ID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// второй экземпляр на том же файле видит те же данные
	other, err := repository.NewFileUsersRepository(path, nil)
	require.NoError(t, err)
	got, err := other.FindByEmail(ctx, "b@example.com")
	require.NoError(t, err)
	require.Equal(t, "u2", got.ID)
}

// Чтение всегда идёт из файла: внешнее изменение сразу видно
func TestFileUsersRepository_ReadsFreshSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.json")

	repo, err := repository.NewFileUsersRepository(path, nil)
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, "ext")
	require.ErrorIs(t, err, serr.ErrNotFound)

	b, err := json.Marshal(repository.UsersDump{Users: []models.User{newUser("ext", "ext@example.com")}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))

	got, err := repo.FindByID(ctx, "ext")
	require.NoError(t, err)
	require.Equal(t, "ext@example.com", got.Email)
}

// Битый файл считается пустой коллекцией
func TestFileUsersRepository_CorruptedFileIsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	repo, err := repository.NewFileUsersRepository(path, nil)
	require.NoError(t, err)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	_, err = repo.FindByEmail(ctx, "a@example.com")
	require.ErrorIs(t, err, serr.ErrNotFound)

	_, err = repo.Insert(ctx, newUser("u1", "a@example.com"))
	require.NoError(t, err)

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestFileUsersRepository_EmptyFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	repo, err := repository.NewFileUsersRepository(path, nil)
	require.NoError(t, err)

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

// Временные файлы после записи не остаются
func TestFileUsersRepository_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	repo, err := repository.NewFileUsersRepository(filepath.Join(dir, "users.json"), nil)
	require.NoError(t, err)

	_, err = repo.Insert(context.Background(), newUser("u1", "a@example.com"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "users.json", entries[0].Name())
}

func TestNewFileUsersRepository_EmptyPath(t *testing.T) {
	_, err := repository.NewFileUsersRepository("", nil)
	require.Error(t, err)
}
