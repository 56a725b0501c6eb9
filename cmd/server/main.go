// @title           AuthKeeper API
// @version         1.0
// @description     Minimal credential service: registration, login, bearer tokens and user profiles.
// @termsOfService  https://example.com/terms

// @contact.name   Ivan Chernomyrdin
// @contact.url    https://github.com/IvanChernomyrdin
// @contact.email  ivan@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:5000
// @BasePath  /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
//
// Package main содержит точку входа серверного приложения AuthKeeper.
//
// Пакет отвечает за инициализацию и жизненный цикл HTTP(S)-сервера, а именно:
//   - загрузку переменных окружения из файла .env (если он присутствует);
//   - загрузку конфигурации сервера (CONFIG_PATH, по умолчанию ./configs/server.yaml);
//   - выбор хранилища пользователей (memory или file);
//   - создание хэшера паролей, сервиса токенов, сервисов и HTTP-обработчиков;
//   - запуск HTTP или HTTPS сервера с заданными таймаутами;
//   - обработку системных сигналов завершения (SIGINT, SIGTERM, SIGQUIT);
//   - корректное (graceful) завершение работы сервера с таймаутом.
//
// Пакет не содержит бизнес-логики и не предназначен для unit-тестирования.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/api"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/config"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/crypto"
	h "github.com/IvanChernomyrdin/go-authkeeper/internal/server/net/http"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/repository"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/server/service"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/shared/logger"

	_ "github.com/IvanChernomyrdin/go-authkeeper/swagger/docs"
)

const defaultConfigPath = "./configs/server.yaml"

func main() {
	// до чтения конфига пишем в лог по умолчанию
	boot := logger.New(logger.Options{Stdout: true}).Sugar()

	if err := godotenv.Load(); err != nil {
		boot.Warnf("no .env file loaded, error: %v", err)
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		boot.Fatal(err)
	}

	httpLogger := logger.New(logger.Options{
		Dir:    cfg.Log.Dir,
		File:   cfg.Log.File,
		Level:  cfg.Log.Level,
		Stdout: cfg.Log.Stdout,
	})
	defer func() { _ = httpLogger.Sync() }()
	sugar := httpLogger.Sugar()

	for _, w := range cfg.Warnings() {
		sugar.Warn(w)
	}

	// создаём хранилище
	users, err := newUsersRepo(cfg, httpLogger.Logger)
	if err != nil {
		sugar.Fatal(err)
	}

	// хэшер и токены
	hasher, err := crypto.NewPasswordHasher(cfg.Password.Hasher, cfg.Password.Bcrypt.Cost, crypto.Argon2Params{
		Time:      cfg.Password.Argon2.Time,
		MemoryKiB: cfg.Password.Argon2.MemoryKiB,
		Threads:   cfg.Password.Argon2.Threads,
		KeyLen:    cfg.Password.Argon2.KeyLen,
		SaltLen:   cfg.Password.Argon2.SaltLen,
	})
	if err != nil {
		sugar.Fatal(err)
	}
	tokens, err := crypto.NewTokenService(crypto.JWTConfig{
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		SigningKey: cfg.Auth.JWT.SigningKey,
		TTL:        cfg.Auth.TokenTTL,
	})
	if err != nil {
		sugar.Fatal(err)
	}

	// создаём сервис
	svc := service.NewServices(
		service.Repositories{Users: users},
		service.Security{Hasher: hasher, Tokens: tokens},
	)
	// создаём хандлер
	handler := api.NewHandler(svc, httpLogger, cfg.Server.MaxBodyBytes)
	// создаём роутер
	router := h.NewRouter(handler, h.RouterOptions{AllowedOrigins: cfg.CORS.AllowedOrigins})
	//создаём сервер
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// создаём контекст и errgroup
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// запускаем сервер
	g.Go(func() error {
		sugar.Infow("server started",
			"addr", addr,
			"tls", cfg.TLS.Enabled,
			"storage", cfg.Storage.Backend,
			"hasher", cfg.Password.Hasher,
		)

		var err error
		if cfg.TLS.Enabled {
			err = server.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// graceful shutdown с таймаутом из конфига
	g.Go(func() error {
		<-ctx.Done()

		sugar.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	// ожидание и единная обработка ошибок
	if err := g.Wait(); err != nil {
		sugar.Fatalf("server stopped with error: %v", err)
	}
	sugar.Info("server gracefully stopped")
}

// configPath: CONFIG_PATH, иначе ./configs/server.yaml, если он есть, иначе только окружение.
func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

func newUsersRepo(cfg *config.Config, log *zap.Logger) (service.UsersRepo, error) {
	switch cfg.Storage.Backend {
	case config.StorageFile:
		repo, err := repository.NewFileUsersRepository(cfg.Storage.FilePath, log)
		if err != nil {
			return nil, err
		}
		log.Info("users storage: file", zap.String("path", repo.Path()))
		return repo, nil
	case config.StorageMemory:
		log.Info("users storage: memory")
		return repository.NewMemoryUsersRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
