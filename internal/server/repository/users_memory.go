package repository

import (
	"context"
	"sync"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-authkeeper/internal/shared/errors"
)

// MemoryUsersRepository — потокобезопасное in-memory хранилище пользователей.
//
// Данные живут, пока жив процесс. Поиск — линейный проход по срезу,
// на целевых объёмах индекс не нужен. Чтения идут под RLock,
// все изменения под Lock, поэтому проверка уникальности email атомарна со вставкой.
type MemoryUsersRepository struct {
	mu    sync.RWMutex
	users []models.User
}

// NewMemoryUsersRepository создаёт пустое хранилище.
func NewMemoryUsersRepository() *MemoryUsersRepository {
	return &MemoryUsersRepository{}
}

// FindByEmail возвращает копию пользователя по email или ErrNotFound.
func (r *MemoryUsersRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := indexByEmail(r.users, email)
	if i < 0 {
		return models.User{}, serr.ErrNotFound
	}
	return r.users[i].Clone(), nil
}

// FindByID возвращает копию пользователя по id или ErrNotFound.
func (r *MemoryUsersRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := indexByID(r.users, id)
	if i < 0 {
		return models.User{}, serr.ErrNotFound
	}
	return r.users[i].Clone(), nil
}

// Insert добавляет пользователя в конец коллекции.
//
// Ошибки:
//   - ErrAlreadyExists если email или id уже заняты
func (r *MemoryUsersRepository) Insert(_ context.Context, u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := appendUnique(r.users, u)
	if err != nil {
		return models.User{}, err
	}
	r.users = users
	return u.Clone(), nil
}

// Replace перезаписывает пользователя id, сохраняя его позицию, ID и CreatedAt.
//
// Ошибки:
//   - ErrNotFound если пользователя нет
//   - ErrAlreadyExists если новый email занят другим пользователем
func (r *MemoryUsersRepository) Replace(_ context.Context, id string, u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return replaceAt(r.users, id, u)
}

// Update читает, изменяет через fn и записывает пользователя под одной блокировкой.
func (r *MemoryUsersRepository) Update(_ context.Context, id string, fn func(models.User) (models.User, error)) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return updateAt(r.users, id, fn)
}

// Count возвращает число пользователей.
func (r *MemoryUsersRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users), nil
}
