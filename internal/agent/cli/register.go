package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/agent/api"
)

// NewRegisterCmd создаёт CLI-команду для регистрации нового пользователя.
//
// После успешной регистрации сервер сразу выдаёт токен, он сохраняется локально.
//
// Пример использования:
//
//	authkeeper register --email test@example.com --password StrongPass123 --profile-name tester
func NewRegisterCmd(app *App) *cobra.Command {
	var (
		req api.RegisterRequest
		pw  passwordFlags
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Регистрация нового пользователя",
		Long: `Регистрация нового пользователя на сервере.

Если --password не указан, пароль запрашивается в терминале.

Пример:
  authkeeper register --email test@example.com --profile-name tester
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := pw.resolve(cmd)
			if err != nil {
				return err
			}
			req.Password = password

			c := NewAPIClient(app)
			resp, err := c.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := app.saveToken(resp.User.Email, resp.Token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: id=%s email=%s (token saved)\n", resp.Message, resp.User.ID, resp.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "email for registration")
	cmd.Flags().StringVar(&req.Mobile, "mobile", "", "mobile phone")
	cmd.Flags().StringVar(&req.FullName, "full-name", "", "full name")
	cmd.Flags().StringVar(&req.ProfileName, "profile-name", "", "public display name")
	cmd.Flags().StringVar(&req.DateOfBirth, "date-of-birth", "", "date of birth")
	pw.bind(cmd)
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
