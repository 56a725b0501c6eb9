package cli

import (
	"github.com/spf13/cobra"
)

// NewVerifyCmd создаёт CLI-команду проверки сохранённого токена.
//
// Выводит профиль владельца токена в JSON.
func NewVerifyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Проверить токен и показать профиль",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := app.token()
			if err != nil {
				return err
			}

			profile, err := NewAPIClient(app).Verify(cmd.Context(), token)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), profile)
		},
	}
}
