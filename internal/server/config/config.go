// Package config отвечает за:
// - чтение server.yaml
// - подстановку переменных окружения вида ${JWT_SECRET}
// - переопределения из окружения (SERVER_PORT, JWT_SECRET, STORAGE_BACKEND ...)
// - проставление дефолтов
// - валидацию (чтобы сервер не стартовал с дырявыми настройками)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/crypto"
)

// InsecureDefaultSigningKey — ключ, которым раньше подписывались токены, если секрет не задан.
// Принимается только при auth.jwt.allow_insecure_default=true и всегда с предупреждением.
const InsecureDefaultSigningKey = "your-secret-key"

// Бэкенды хранилища пользователей.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
)

// Config — корневая структура всего конфига сервера.
type Config struct {
	Env      string         `yaml:"env"` // dev|stage|prod
	Server   ServerConfig   `yaml:"server"`
	TLS      TLSConfig      `yaml:"tls"`
	Auth     AuthConfig     `yaml:"auth"`
	Password PasswordConfig `yaml:"password"`
	Storage  StorageConfig  `yaml:"storage"`
	CORS     CORSConfig     `yaml:"cors"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig — настройки HTTP-сервера.
type ServerConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"` // время на graceful shutdown
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`   // лимит размера тела запроса
}

// TLSConfig — настройки HTTPS. В отличие от хранилища секретов TLS здесь опционален:
// сервис обычно стоит за балансировщиком.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AuthConfig — настройки выпуска токенов.
type AuthConfig struct {
	Issuer   string        `yaml:"issuer"`
	Audience string        `yaml:"audience"`
	TokenTTL time.Duration `yaml:"token_ttl"`
	JWT      JWTConfig     `yaml:"jwt"`
}

// JWTConfig — как подписываем JWT.
type JWTConfig struct {
	Algorithm            string `yaml:"algorithm"`              // сейчас поддерживаем только HS256
	SigningKey           string `yaml:"signing_key"`            // может содержать ${JWT_SECRET}
	AllowInsecureDefault bool   `yaml:"allow_insecure_default"` // только для локальной разработки
}

// PasswordConfig — настройки хэширования паролей пользователей.
type PasswordConfig struct {
	Hasher string       `yaml:"hasher"` // bcrypt|argon2id
	Bcrypt BcryptConfig `yaml:"bcrypt"`
	Argon2 Argon2Config `yaml:"argon2"`
}

// BcryptConfig — параметры bcrypt.
type BcryptConfig struct {
	Cost int `yaml:"cost"`
}

// Argon2Config — параметры argon2id.
type Argon2Config struct {
	Time      uint32 `yaml:"time"`
	MemoryKiB uint32 `yaml:"memory_kib"`
	Threads   uint8  `yaml:"threads"`
	KeyLen    uint32 `yaml:"key_len"`
	SaltLen   uint32 `yaml:"salt_len"`
}

// StorageConfig — где живут пользователи.
type StorageConfig struct {
	Backend  string `yaml:"backend"`   // memory|file
	FilePath string `yaml:"file_path"` // только для file
}

// CORSConfig — разрешённые источники для браузерного фронтенда.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig — настройки логирования (zap).
type LogConfig struct {
	Level  string `yaml:"level"` // debug|info|warn|error
	Dir    string `yaml:"dir"`
	File   string `yaml:"file"`
	Stdout bool   `yaml:"stdout"`
}

// EnvOverrides — переменные окружения, которые перекрывают значения из yaml.
type EnvOverrides struct {
	ServerPort      int    `env:"SERVER_PORT"`
	JWTSecret       string `env:"JWT_SECRET"`
	StorageBackend  string `env:"STORAGE_BACKEND"`
	StorageFilePath string `env:"STORAGE_FILE_PATH"`
	LogLevel        string `env:"LOG_LEVEL"`
}

var envPlaceholder = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// Load читает YAML, подставляет переменные окружения вида ${VAR},
// применяет переопределения из окружения, проставляет дефолты и валидирует.
//
// Пустой path — конфиг собирается только из окружения и дефолтов.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать конфиг: %w", err)
		}

		// signing_key: "${JWT_SECRET}" -> signing_key: "реальное_значение"
		expanded := ExpandEnvStrict(string(raw))

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("не удалось распарсить yaml: %w", err)
		}
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ExpandEnvStrict заменяет ${VAR} на значение из окружения.
// Если переменная не задана — оставляем ${VAR} как есть,
// а потом Validate() упадёт с понятной ошибкой.
func ExpandEnvStrict(s string) string {
	return envPlaceholder.ReplaceAllStringFunc(s, func(m string) string {
		sub := envPlaceholder.FindStringSubmatch(m)
		if len(sub) != 2 {
			return m
		}
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		return m
	})
}

// ApplyEnvOverrides перекрывает поля конфига непустыми переменными окружения.
func (c *Config) ApplyEnvOverrides() error {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.ServerPort > 0 {
		c.Server.Port = o.ServerPort
	}
	if o.JWTSecret != "" {
		c.Auth.JWT.SigningKey = o.JWTSecret
	}
	if o.StorageBackend != "" {
		c.Storage.Backend = o.StorageBackend
	}
	if o.StorageFilePath != "" {
		c.Storage.FilePath = o.StorageFilePath
	}
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	return nil
}

// ApplyDefaults — дефолтные значения, если в yaml поле не задано.
func ApplyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.ReadHeaderTimeout == 0 {
		cfg.Server.ReadHeaderTimeout = 5 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Auth.JWT.Algorithm == "" {
		cfg.Auth.JWT.Algorithm = "HS256"
	}
	// секрет не задан, но явно разрешён небезопасный дефолт
	if cfg.Auth.JWT.AllowInsecureDefault && unsetSecret(cfg.Auth.JWT.SigningKey) {
		cfg.Auth.JWT.SigningKey = InsecureDefaultSigningKey
	}
	if cfg.Password.Hasher == "" {
		cfg.Password.Hasher = "bcrypt"
	}
	if cfg.Password.Bcrypt.Cost == 0 {
		cfg.Password.Bcrypt.Cost = 10
	}
	if cfg.Password.Argon2 == (Argon2Config{}) {
		cfg.Password.Argon2 = Argon2Config{Time: 3, MemoryKiB: 64 * 1024, Threads: 2, KeyLen: 32, SaltLen: 16}
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageMemory
	}
	if cfg.Storage.Backend == StorageFile && cfg.Storage.FilePath == "" {
		cfg.Storage.FilePath = filepath.Join(os.TempDir(), "authkeeper", "users.json")
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate проверяет, что конфиг заполнен корректно и безопасно.
// Если что-то не так — возвращаем ошибку и сервер НЕ стартует.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host обязателен")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port некорректен: %d", c.Server.Port)
	}

	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return errors.New("tls.cert_file и tls.key_file обязательны при tls.enabled=true")
	}

	// JWT
	alg := strings.ToUpper(strings.TrimSpace(c.Auth.JWT.Algorithm))
	if alg != "HS256" {
		return fmt.Errorf("auth.jwt.algorithm должен быть HS256 (сейчас %q)", c.Auth.JWT.Algorithm)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl должен быть > 0 (сейчас %s)", c.Auth.TokenTTL)
	}

	key := strings.TrimSpace(c.Auth.JWT.SigningKey)
	if key == "" {
		return errors.New("auth.jwt.signing_key обязателен (через ${JWT_SECRET} или переменную JWT_SECRET)")
	}
	// Если ${JWT_SECRET} не подставился — значит переменная окружения не задана
	if unsetSecret(key) {
		return fmt.Errorf("auth.jwt.signing_key содержит неподставленную переменную: %q (нужно задать JWT_SECRET)", key)
	}
	if key == InsecureDefaultSigningKey {
		if !c.Auth.JWT.AllowInsecureDefault {
			return errors.New("auth.jwt.signing_key совпадает с небезопасным дефолтом; задай JWT_SECRET")
		}
	} else if len(key) < 32 {
		// Для HS256 ключ должен быть длинным и случайным
		return fmt.Errorf("auth.jwt.signing_key слишком короткий (%d символов); нужно >= 32", len(key))
	}

	// Хэширование паролей
	switch strings.ToLower(c.Password.Hasher) {
	case "bcrypt":
		if c.Password.Bcrypt.Cost < 4 || c.Password.Bcrypt.Cost > 31 {
			return fmt.Errorf("password.bcrypt.cost должен быть в диапазоне 4..31 (сейчас %d)", c.Password.Bcrypt.Cost)
		}
	case "argon2id":
		a := c.Password.Argon2
		if a.Time == 0 || a.MemoryKiB == 0 || a.Threads == 0 || a.KeyLen == 0 || a.SaltLen == 0 {
			return errors.New("password.argon2 должен быть настроен для argon2id")
		}
		if a.MemoryKiB > crypto.MaxArgon2MemoryKiB || a.Time > crypto.MaxArgon2Time {
			return fmt.Errorf("password.argon2: memory_kib <= %d и time <= %d", crypto.MaxArgon2MemoryKiB, crypto.MaxArgon2Time)
		}
	default:
		return fmt.Errorf("password.hasher должен быть bcrypt|argon2id (сейчас %q)", c.Password.Hasher)
	}

	// Хранилище
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFile:
		if c.Storage.FilePath == "" {
			return errors.New("storage.file_path обязателен для storage.backend=file")
		}
	default:
		return fmt.Errorf("storage.backend должен быть memory|file (сейчас %q)", c.Storage.Backend)
	}

	return nil
}

// Warnings возвращает замечания, которые не мешают старту, но должны попасть в лог.
func (c *Config) Warnings() []string {
	var w []string
	if c.Auth.JWT.SigningKey == InsecureDefaultSigningKey {
		w = append(w, "auth.jwt.signing_key использует небезопасный встроенный дефолт; задай JWT_SECRET перед деплоем")
	}
	if c.Storage.Backend == StorageMemory && c.Env != "dev" {
		w = append(w, "storage.backend=memory: пользователи пропадут при перезапуске")
	}
	return w
}

func unsetSecret(key string) bool {
	key = strings.TrimSpace(key)
	return key == "" || (strings.Contains(key, "${") && strings.Contains(key, "}"))
}
