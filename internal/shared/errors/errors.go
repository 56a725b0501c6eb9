// Package errors содержит общие доменные ошибки приложения.
//
// Ошибки используются в service и repository слоях
// и маппятся на HTTP-статусы и сообщения в api слое.
package errors

import "errors"

var (
	// Входные данные невалидны (пустой email, слишком длинный пароль и т.п.)
	ErrInvalidInput = errors.New("invalid input")
	// Неверные учётные данные. Одна ошибка и для "нет такого email", и для "не тот пароль"
	ErrInvalidCredentials = errors.New("invalid credentials")
	// Получена непредвиденная ошибка (хэширование, хранилище)
	ErrInternal = errors.New("internal error")
	// Полученные JSON данные с ошибками
	ErrBadJSON = errors.New("bad json")
	// Токен не передан или не прошёл проверку
	ErrUnauthorized = errors.New("unauthorized")
	// Токен подделан, битый или просрочен (уровень TokenService)
	ErrInvalidToken = errors.New("invalid token")
	// Пользователь с таким email уже существует
	ErrAlreadyExists = errors.New("already exists")
	// Пользователь не найден
	ErrNotFound = errors.New("not found")
	// ожидаемая ошибка
	ErrExpectedError = errors.New("expected error")
	// неожидаемая ошибка
	ErrUnexpectedError = errors.New("unexpected error")
)
