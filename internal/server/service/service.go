// Package service содержит бизнес-логику AuthKeeper.
// Это прослойка между HTTP-обработчиками (api) и хранилищем пользователей (repository).
package service

import (
	"context"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/crypto"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/models"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

// Repositories — набор интерфейсов, которые сервисный слой ожидает от слоя repository.
type Repositories struct {
	Users UsersRepo
}

// Security — криптографические зависимости сервисов.
type Security struct {
	Hasher crypto.PasswordHasher
	Tokens *crypto.TokenService
}

// Services — агрегатор всех сервисов приложения.
type Services struct {
	Auth *AuthService
}

// NewServices собирает все сервисы приложения.
func NewServices(repos Repositories, sec Security) *Services {
	return &Services{
		Auth: NewAuthService(repos.Users, sec.Hasher, sec.Tokens),
	}
}

// UsersRepo — хранилище пользователей. Контракт одинаков для памяти и файла.
//
// Все изменения коллекции сериализованы внутри реализации:
// Insert сам повторно проверяет уникальность email, Update выполняет
// чтение, изменение и запись как одну операцию.
type UsersRepo interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Insert(ctx context.Context, u models.User) (models.User, error)
	Replace(ctx context.Context, id string, u models.User) (models.User, error)
	Update(ctx context.Context, id string, fn func(models.User) (models.User, error)) (models.User, error)
	Count(ctx context.Context) (int, error)
}
