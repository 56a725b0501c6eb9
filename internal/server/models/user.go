// Package models содержит серверную модель пользователя и её публичные представления.
package models

import (
	"time"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/shared/utils"
)

// User — запись пользователя в хранилище.
//
// PasswordHash сериализуется только в снапшот файлового хранилища,
// наружу запись отдаётся через Profile/PublicProfile.
// Bio, Location и FavoriteGenre — указатели: nil значит "ещё не задавалось".
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"passwordHash"`
	Mobile        string    `json:"mobile,omitempty"`
	FullName      string    `json:"fullName,omitempty"`
	ProfileName   string    `json:"profileName,omitempty"`
	DateOfBirth   string    `json:"dateOfBirth,omitempty"`
	Bio           *string   `json:"bio,omitempty"`
	Location      *string   `json:"location,omitempty"`
	FavoriteGenre *string   `json:"favoriteGenre,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PublicProfile — минимальное представление, которое отдают register и login.
type PublicProfile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	ProfileName string `json:"profileName"`
}

// Profile — полная запись без хэша пароля (verify и update profile).
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Mobile        string    `json:"mobile,omitempty"`
	FullName      string    `json:"fullName,omitempty"`
	ProfileName   string    `json:"profileName,omitempty"`
	DateOfBirth   string    `json:"dateOfBirth,omitempty"`
	Bio           *string   `json:"bio,omitempty"`
	Location      *string   `json:"location,omitempty"`
	FavoriteGenre *string   `json:"favoriteGenre,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Public возвращает минимальный профиль пользователя.
func (u User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Email: u.Email, ProfileName: u.ProfileName}
}

// Profile возвращает копию записи без PasswordHash.
func (u User) Profile() Profile {
	return Profile{
		ID:            u.ID,
		Email:         u.Email,
		Mobile:        u.Mobile,
		FullName:      u.FullName,
		ProfileName:   u.ProfileName,
		DateOfBirth:   u.DateOfBirth,
		Bio:           utils.ClonePtr(u.Bio),
		Location:      utils.ClonePtr(u.Location),
		FavoriteGenre: utils.ClonePtr(u.FavoriteGenre),
		CreatedAt:     u.CreatedAt,
	}
}

// Clone возвращает глубокую копию записи, чтобы снаружи хранилища
// никто не держал указатели на его внутренние строки.
func (u User) Clone() User {
	u.Bio = utils.ClonePtr(u.Bio)
	u.Location = utils.ClonePtr(u.Location)
	u.FavoriteGenre = utils.ClonePtr(u.FavoriteGenre)
	return u
}

// ProfilePatch — частичное обновление профиля.
//
// nil означает, что поле в запросе отсутствовало или пришло как null.
type ProfilePatch struct {
	FullName      *string `json:"fullName,omitempty"`
	ProfileName   *string `json:"profileName,omitempty"`
	Mobile        *string `json:"mobile,omitempty"`
	DateOfBirth   *string `json:"dateOfBirth,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	Location      *string `json:"location,omitempty"`
	FavoriteGenre *string `json:"favoriteGenre,omitempty"`
}

