package cli

import (
	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/agent/api"
)

// для тестов
var (
	NewAPIClient = func(app *App) *api.Client {
		if app.Insecure {
			return api.NewClient(app.ServerURL, api.WithInsecureTLS())
		}
		return api.NewClient(app.ServerURL)
	}
	ReadPassword = func(cmd *cobra.Command, fromStdin bool) (string, error) {
		return readPassword(cmd, fromStdin)
	}
)
