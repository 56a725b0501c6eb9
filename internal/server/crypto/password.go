// Хэширование паролей
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Поддерживаемые алгоритмы хэширования.
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// DefaultBcryptCost совпадает со стоимостью, с которой пароли хэшировались изначально.
const DefaultBcryptCost = 10

// Пределы параметров argon2id, которые принимаются из сохранённого хэша.
// Параметры читаются из хранилища, без пределов битая запись может уронить
// процесс (p=0) или выделить сколько угодно памяти (m).
const (
	MaxArgon2MemoryKiB = 1 << 20 // 1 GiB
	MaxArgon2Time      = 64
	maxArgon2KeyLen    = 1024
)

var errInvalidHashFormat = errors.New("invalid hash format")

// PasswordHasher — одностороннее солёное хэширование пароля и его проверка.
//
// Hash на каждый вызов берёт новую соль, поэтому два хэша одного пароля различаются.
// Verify сравнивает закодированный дайджест за постоянное время.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// BcryptHasher хэширует пароли через bcrypt с заданной стоимостью.
type BcryptHasher struct {
	Cost int
}

// Hash возвращает bcrypt-хэш пароля ($2a$...).
// bcrypt не принимает пароли длиннее 72 байт — это тоже ошибка.
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify проверяет пароль против bcrypt-хэша.
// Несовпадение пароля ошибкой не считается.
func (h BcryptHasher) Verify(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt: %w", err)
	}
}

// Argon2Params — параметры argon2id.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   uint32
}

// Argon2Hasher хэширует пароли через argon2id.
type Argon2Hasher struct {
	Params Argon2Params
}

// Hash возвращает строку формата:
// argon2id$v=19$m=65536,t=3,p=2$<salt_b64>$<hash_b64>
func (h Argon2Hasher) Hash(password string) (string, error) {
	p := h.Params

	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)

	encoded := fmt.Sprintf(
		"argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.MemoryKiB, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// Verify пересчитывает argon2id с параметрами из encoded и сравнивает за постоянное время.
func (h Argon2Hasher) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != HasherArgon2id {
		return false, errInvalidHashFormat
	}

	// parts[1] = v=19
	// parts[2] = m=...,t=...,p=...
	// parts[3] = salt
	// parts[4] = hash

	var memory uint32
	var time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, errors.New("invalid params format")
	}
	if threads == 0 || time == 0 || time > MaxArgon2Time || memory == 0 || memory > MaxArgon2MemoryKiB {
		return false, fmt.Errorf("%w: argon2 params out of range", errInvalidHashFormat)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, errors.New("invalid salt")
	}

	wantHash, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(wantHash) == 0 || len(wantHash) > maxArgon2KeyLen {
		return false, errors.New("invalid hash")
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(wantHash)))
	return subtle.ConstantTimeCompare(got, wantHash) == 1, nil
}

// MultiHasher хэширует основным алгоритмом, а проверяет тем, чей префикс
// у сохранённого хэша. Смена password.hasher не ломает вход старым пользователям.
type MultiHasher struct {
	Primary PasswordHasher
	Bcrypt  BcryptHasher
	Argon2  Argon2Hasher
}

// NewPasswordHasher собирает MultiHasher с основным алгоритмом name.
func NewPasswordHasher(name string, bcryptCost int, argon Argon2Params) (*MultiHasher, error) {
	m := &MultiHasher{
		Bcrypt: BcryptHasher{Cost: bcryptCost},
		Argon2: Argon2Hasher{Params: argon},
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case HasherBcrypt, "":
		m.Primary = m.Bcrypt
	case HasherArgon2id:
		m.Primary = m.Argon2
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
	return m, nil
}

// Hash хэширует основным алгоритмом.
func (m *MultiHasher) Hash(password string) (string, error) {
	return m.Primary.Hash(password)
}

// Verify выбирает алгоритм по формату encoded.
func (m *MultiHasher) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, HasherArgon2id+"$"):
		return m.Argon2.Verify(password, encoded)
	case strings.HasPrefix(encoded, "$2"):
		return m.Bcrypt.Verify(password, encoded)
	default:
		return false, errInvalidHashFormat
	}
}
