// Package config содержит функции для работы с локальной конфигурацией CLI-клиента.
//
// Конфигурация хранит bearer-токен и размещается в домашней директории
// пользователя в файле:
//
//	~/.authkeeper/credentials.json
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Credentials содержит учётные данные, используемые CLI-клиентом.
type Credentials struct {
	// Token — bearer-токен из ответа register/login.
	Token string `json:"token"`
	// Email — с каким email получен токен, только для вывода.
	Email string `json:"email,omitempty"`
	// ServerURL — сервер, выдавший токен.
	ServerURL string `json:"server_url,omitempty"`
}

// DefaultPath возвращает путь к файлу учётных данных.
//
// AUTHKEEPER_CREDENTIALS перекрывает путь по умолчанию <home>/.authkeeper/credentials.json.
func DefaultPath() (string, error) {
	if p := os.Getenv("AUTHKEEPER_CREDENTIALS"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".authkeeper", "credentials.json"), nil
}

// Load загружает учётные данные из указанного файла.
//
// Если файл не существует, возвращает пустые учётные данные без ошибки.
// Если файл существует, но содержит некорректный JSON, возвращает ошибку.
func Load(path string) (*Credentials, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{}, nil
		}
		return nil, err
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save сохраняет учётные данные в JSON.
//
// Директория создаётся с правами 0700, файл записывается с правами 0600.
func Save(path string, c *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// Remove удаляет файл учётных данных. Отсутствие файла — не ошибка.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
