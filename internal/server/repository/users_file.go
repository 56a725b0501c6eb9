package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-authkeeper/internal/shared/errors"
)

// UsersDump — формат файла хранилища пользователей.
//
// Файл содержит объект вида:
//
//	{ "users": [ ... ] }
type UsersDump struct {
	Users []models.User `json:"users"`
}

// FileUsersRepository хранит всю коллекцию пользователей JSON-снапшотом в одном файле.
//
// Поведение:
//   - каждое чтение заново читает и разбирает весь файл, кэша в процессе нет;
//   - каждая запись: прочитать файл -> изменить в памяти -> перезаписать файл целиком;
//   - отсутствующий или битый файл считается пустой коллекцией;
//   - записи внутри процесса сериализованы мьютексом, файл подменяется атомарно
//     (временный файл в том же каталоге + rename), читатель никогда не видит половину снапшота.
//
// Несколько процессов на одном файле между собой не координируются.
type FileUsersRepository struct {
	path string
	log  *zap.Logger

	// mu сериализует циклы read-modify-write
	mu sync.Mutex
}

// NewFileUsersRepository создаёт хранилище поверх файла path.
// Каталог файла создаётся с правами 0700; сам файл появится при первой записи.
func NewFileUsersRepository(path string, log *zap.Logger) (*FileUsersRepository, error) {
	if path == "" {
		return nil, errors.New("users file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create users dir: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FileUsersRepository{path: path, log: log}, nil
}

// Path возвращает путь к файлу снапшота.
func (r *FileUsersRepository) Path() string {
	return r.path
}

// FindByEmail возвращает пользователя по email из свежего снапшота или ErrNotFound.
func (r *FileUsersRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	users, err := r.load()
	if err != nil {
		return models.User{}, err
	}
	i := indexByEmail(users, email)
	if i < 0 {
		return models.User{}, serr.ErrNotFound
	}
	return users[i], nil
}

// FindByID возвращает пользователя по id из свежего снапшота или ErrNotFound.
func (r *FileUsersRepository) FindByID(_ context.Context, id string) (models.User, error) {
	users, err := r.load()
	if err != nil {
		return models.User{}, err
	}
	i := indexByID(users, id)
	if i < 0 {
		return models.User{}, serr.ErrNotFound
	}
	return users[i], nil
}

// Insert дописывает пользователя в снапшот.
//
// Ошибки:
//   - ErrAlreadyExists если email или id уже заняты
//   - ErrInternal если файл не удалось прочитать или записать
func (r *FileUsersRepository) Insert(_ context.Context, u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return models.User{}, err
	}
	users, err = appendUnique(users, u)
	if err != nil {
		return models.User{}, err
	}
	if err := r.save(users); err != nil {
		return models.User{}, err
	}
	return u.Clone(), nil
}

// Replace перезаписывает пользователя id на его месте в снапшоте.
func (r *FileUsersRepository) Replace(_ context.Context, id string, u models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return models.User{}, err
	}
	saved, err := replaceAt(users, id, u)
	if err != nil {
		return models.User{}, err
	}
	if err := r.save(users); err != nil {
		return models.User{}, err
	}
	return saved, nil
}

// Update читает снапшот, применяет fn к пользователю id и записывает снапшот,
// всё в одном цикле под мьютексом.
func (r *FileUsersRepository) Update(_ context.Context, id string, fn func(models.User) (models.User, error)) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return models.User{}, err
	}
	saved, err := updateAt(users, id, fn)
	if err != nil {
		return models.User{}, err
	}
	if err := r.save(users); err != nil {
		return models.User{}, err
	}
	return saved, nil
}

// Count возвращает число пользователей в снапшоте.
func (r *FileUsersRepository) Count(_ context.Context) (int, error) {
	users, err := r.load()
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

// load читает и разбирает весь файл.
//
// Нет файла — пустая коллекция. Битый JSON — тоже пустая коллекция (с warn в лог).
// Прочие ошибки чтения (права, IO) — ErrInternal.
func (r *FileUsersRepository) load() ([]models.User, error) {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		r.log.Error("read users file", zap.String("path", r.path), zap.Error(err))
		return nil, fmt.Errorf("%w: read users file: %v", serr.ErrInternal, err)
	}
	if len(b) == 0 {
		return nil, nil
	}

	var dump UsersDump
	if err := json.Unmarshal(b, &dump); err != nil {
		r.log.Warn("users file is corrupted, treating as empty", zap.String("path", r.path), zap.Error(err))
		return nil, nil
	}
	return dump.Users, nil
}

// save сериализует коллекцию и атомарно подменяет файл.
func (r *FileUsersRepository) save(users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	b, err := json.MarshalIndent(UsersDump{Users: users}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal users: %v", serr.ErrInternal, err)
	}

	if err := writeFileAtomic(r.path, b, 0o600); err != nil {
		r.log.Error("write users file", zap.String("path", r.path), zap.Error(err))
		return fmt.Errorf("%w: write users file: %v", serr.ErrInternal, err)
	}
	return nil
}

// writeFileAtomic пишет data во временный файл рядом с path и переименовывает его в path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	// если что-то пошло не так — не оставляем мусор
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return err
	}
	err = os.Rename(tmpName, path)
	return err
}
