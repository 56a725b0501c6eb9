// Package cli реализует командный интерфейс (CLI) клиентского приложения AuthKeeper.
//
// Пакет отвечает за:
//   - определение root-команды и набора подкоманд;
//   - разбор аргументов и флагов командной строки;
//   - загрузку и сохранение локального bearer-токена;
//   - выполнение команд и вывод результата пользователю.
//
// Точка входа пакета — функция Execute.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/agent/config"
)

// DefaultServerURL — адрес сервера, если не задан ни флагом, ни AUTHKEEPER_SERVER.
const DefaultServerURL = "http://127.0.0.1:5000"

// ErrNotLoggedIn — в локальном конфиге нет токена.
var ErrNotLoggedIn = errors.New("not logged in: run `authkeeper login` first")

// App содержит состояние CLI-приложения, разделяемое между командами.
type App struct {
	// ServerURL — базовый URL сервера AuthKeeper.
	ServerURL string
	// Insecure отключает проверку TLS сертификата (только для dev).
	Insecure bool

	// CredsPath — путь к файлу с сохранённым токеном.
	CredsPath string
	// Creds — загруженные учётные данные. nil, если загрузка не выполнялась.
	Creds *config.Credentials
}

// token возвращает сохранённый токен или ErrNotLoggedIn.
func (app *App) token() (string, error) {
	if app.Creds == nil || app.Creds.Token == "" {
		return "", ErrNotLoggedIn
	}
	return app.Creds.Token, nil
}

// saveToken сохраняет токен, полученный от register/login.
func (app *App) saveToken(email, token string) error {
	if app.Creds == nil {
		app.Creds = &config.Credentials{}
	}
	app.Creds.Token = token
	app.Creds.Email = email
	app.Creds.ServerURL = app.ServerURL
	return config.Save(app.CredsPath, app.Creds)
}

// NewRootCmd создаёт root-команду CLI и регистрирует подкоманды.
//
// buildVersion и buildDate используются командой version.
// В PersistentPreRunE определяется путь к файлу учётных данных и загружается токен.
func NewRootCmd(buildVersion, buildDate string) *cobra.Command {
	app := &App{}

	defaultServer := os.Getenv("AUTHKEEPER_SERVER")
	if defaultServer == "" {
		defaultServer = DefaultServerURL
	}

	cmd := &cobra.Command{
		Use:   "authkeeper",
		Short: "AuthKeeper CLI — регистрация, вход и профиль пользователя",
		Long: `AuthKeeper CLI.

Команды:
  register  Регистрация нового пользователя (сохраняет токен)
  login     Логин (сохраняет токен)
  verify    Проверить токен и показать профиль
  profile   Частично обновить профиль
  logout    Удалить сохранённый токен
  version   Версия и дата сборки

Примеры:
  authkeeper register --email test@example.com --profile-name tester
  authkeeper login --email test@example.com
  authkeeper verify
  authkeeper profile --bio "" --location Berlin
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.CredsPath == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				app.CredsPath = p
			}

			creds, err := config.Load(app.CredsPath)
			if err != nil {
				return err
			}
			app.Creds = creds
			return nil
		},
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", defaultServer, "server base URL")
	cmd.PersistentFlags().BoolVar(&app.Insecure, "insecure", false, "skip TLS certificate verification (dev only)")
	cmd.PersistentFlags().StringVar(&app.CredsPath, "credentials", "", "credentials file (default ~/.authkeeper/credentials.json)")

	cmd.AddCommand(NewRegisterCmd(app))
	cmd.AddCommand(NewLoginCmd(app))
	cmd.AddCommand(NewVerifyCmd(app))
	cmd.AddCommand(NewProfileCmd(app))
	cmd.AddCommand(NewLogoutCmd(app))
	cmd.AddCommand(NewVersionCmd(buildVersion, buildDate))

	return cmd
}

// Execute запускает обработку CLI-команд.
//
// При ошибке сообщение выводится в stderr, процесс завершается с кодом 1.
func Execute(buildVersion, buildDate string) {
	if err := NewRootCmd(buildVersion, buildDate).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
