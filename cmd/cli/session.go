package cli

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/uats/internal/app"
	"github.com/turtacn/uats/internal/application/dto"
	"github.com/turtacn/uats/pkg/utils"
)

func newSessionCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Sign in and show the signed-in user and token status",
		Args:  cobra.NoArgs,
		RunE: o.run(false, func(ctx context.Context, cmd *cobra.Command, _ []string, a *app.App) error {
			// a failed token fetch is part of the report, not a command failure
			_, _ = a.AwaitToken(ctx)
			resp := dto.NewSessionResponse(a.Store.State())
			return o.render(cmd, resp, func(w io.Writer) error {
				rows := [][]string{
					{"signed in", strconv.FormatBool(resp.User != nil)},
					{"token", strconv.FormatBool(resp.HasToken)},
				}
				if resp.User != nil {
					rows = append(rows,
						[]string{"user", resp.User.ID},
						[]string{"name", resp.User.DisplayName()},
						[]string{"email", resp.User.Email},
					)
				}
				if resp.TokenError != "" {
					rows = append(rows, []string{"token error", resp.TokenError})
				}
				return printTable(w, []string{"FIELD", "VALUE"}, rows)
			})
		}),
	}
}

func newConfigCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.loadConfig()
			if err != nil {
				return err
			}
			masked := *cfg
			masked.Identity.Token = mask(cfg.Identity.Token)
			masked.Redis.Password = mask(cfg.Redis.Password)
			return printJSON(cmd.OutOrStdout(), masked)
		},
	}
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return utils.MaskToken(secret)
}

//Personal.AI order the ending
