package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLoginCmd создаёт CLI-команду для входа пользователя.
//
// Команда получает bearer-токен и сохраняет его в локальный файл учётных данных.
//
// Пример использования:
//
//	authkeeper login --email test@example.com --password StrongPass123
func NewLoginCmd(app *App) *cobra.Command {
	var (
		email string
		pw    passwordFlags
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Логин пользователя (получить токен)",
		Long: `Логин пользователя.

Пример:
  authkeeper login --email test@example.com
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := pw.resolve(cmd)
			if err != nil {
				return err
			}

			c := NewAPIClient(app)
			resp, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := app.saveToken(resp.User.Email, resp.Token); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "login ok (token saved)")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email for login")
	pw.bind(cmd)
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
