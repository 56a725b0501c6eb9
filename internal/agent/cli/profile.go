package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IvanChernomyrdin/go-authkeeper/internal/agent/api"
	"github.com/IvanChernomyrdin/go-authkeeper/internal/shared/utils"
)

// profileFlags — имя флага и поле patch, в которое он попадает.
var profileFlags = []struct {
	name  string
	usage string
	field func(p *api.ProfilePatch) **string
}{
	{"full-name", "full name (empty value is ignored by the server)", func(p *api.ProfilePatch) **string { return &p.FullName }},
	{"profile-name", "public display name (empty value is ignored by the server)", func(p *api.ProfilePatch) **string { return &p.ProfileName }},
	{"mobile", "mobile phone (empty value is ignored by the server)", func(p *api.ProfilePatch) **string { return &p.Mobile }},
	{"date-of-birth", "date of birth (empty value is ignored by the server)", func(p *api.ProfilePatch) **string { return &p.DateOfBirth }},
	{"bio", "bio (empty value clears it)", func(p *api.ProfilePatch) **string { return &p.Bio }},
	{"location", "location (empty value clears it)", func(p *api.ProfilePatch) **string { return &p.Location }},
	{"favorite-genre", "favorite genre (empty value clears it)", func(p *api.ProfilePatch) **string { return &p.FavoriteGenre }},
}

// NewProfileCmd создаёт CLI-команду частичного обновления профиля.
//
// Отправляются только явно указанные флаги, поэтому --bio "" очищает bio,
// а не указанное поле остаётся как есть.
//
// Пример использования:
//
//	authkeeper profile --location Berlin --bio ""
func NewProfileCmd(app *App) *cobra.Command {
	values := make([]string, len(profileFlags))

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Частично обновить профиль",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := app.token()
			if err != nil {
				return err
			}

			var patch api.ProfilePatch
			changed := 0
			for i, f := range profileFlags {
				if !cmd.Flags().Changed(f.name) {
					continue
				}
				*f.field(&patch) = utils.Ptr(values[i])
				changed++
			}
			if changed == 0 {
				return errors.New("nothing to update: pass at least one profile flag")
			}

			resp, err := NewAPIClient(app).UpdateProfile(cmd.Context(), token, patch)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return printJSON(cmd.OutOrStdout(), resp.User)
		},
	}

	for i, f := range profileFlags {
		cmd.Flags().StringVar(&values[i], f.name, "", f.usage)
	}

	return cmd
}
