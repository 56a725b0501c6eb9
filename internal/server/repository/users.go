// Package repository содержит реализации хранилища пользователей (UserStore).
//
// Два взаимозаменяемых бэкенда с одним контрактом service.UsersRepo:
//   - MemoryUsersRepository — упорядоченный срез в памяти процесса;
//   - FileUsersRepository — JSON-снапшот всей коллекции в одном файле.
//
// Репозитории не содержат бизнес-логики, наружу отдают только копии записей.
// Все ошибки приводятся к доменным ошибкам из internal/shared/errors.
package repository

import (
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/models"
	serr "github.com/IvanChernomyrdin/go-authkeeper/internal/shared/errors"
)

// indexByEmail ищет запись по точному совпадению email (без приведения регистра).
func indexByEmail(users []models.User, email string) int {
	for i := range users {
		if users[i].Email == email {
			return i
		}
	}
	return -1
}

func indexByID(users []models.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

// appendUnique добавляет запись, если ни email, ни id ещё не заняты.
func appendUnique(users []models.User, u models.User) ([]models.User, error) {
	if indexByEmail(users, u.Email) >= 0 || indexByID(users, u.ID) >= 0 {
		return users, serr.ErrAlreadyExists
	}
	return append(users, u.Clone()), nil
}

// replaceAt перезаписывает запись id на месте.
//
// ID и CreatedAt берутся из сохранённой записи: они неизменяемы.
// Смена email на уже занятый другим пользователем — ErrAlreadyExists.
func replaceAt(users []models.User, id string, u models.User) (models.User, error) {
	i := indexByID(users, id)
	if i < 0 {
		return models.User{}, serr.ErrNotFound
	}
	if j := indexByEmail(users, u.Email); j >= 0 && j != i {
		return models.User{}, serr.ErrAlreadyExists
	}

	u.ID = users[i].ID
	u.CreatedAt = users[i].CreatedAt
	users[i] = u.Clone()
	return u.Clone(), nil
}

// updateAt применяет fn к копии записи id и сохраняет результат на месте.
func updateAt(users []models.User, id string, fn func(models.User) (models.User, error)) (models.User, error) {
	i := indexByID(users, id)
	if i < 0 {
		return models.User{}, serr.ErrNotFound
	}
	next, err := fn(users[i].Clone())
	if err != nil {
		return models.User{}, err
	}
	return replaceAt(users, id, next)
}
