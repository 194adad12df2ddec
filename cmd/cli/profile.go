package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/turtacn/uats/internal/app"
	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/pkg/utils"
)

func newProfileCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the user profile",
		Args:  cobra.NoArgs,
		RunE: o.run(true, func(ctx context.Context, cmd *cobra.Command, _ []string, a *app.App) error {
			profile, err := a.Profiles.Profile(ctx)
			if err != nil {
				return err
			}
			return o.renderProfile(cmd, profile)
		}),
	}
	cmd.AddCommand(newProfileUpdateCommand(o))
	return cmd
}

func newProfileUpdateCommand(o *rootOptions) *cobra.Command {
	var firstName, lastName, email, phone, image string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; only the flags given are sent",
		Args:  cobra.NoArgs,
		RunE: o.run(true, func(ctx context.Context, cmd *cobra.Command, _ []string, a *app.App) error {
			var update models.ProfileUpdate
			flags := cmd.Flags()
			if flags.Changed("first-name") {
				update.FirstName = &firstName
			}
			if flags.Changed("last-name") {
				update.LastName = &lastName
			}
			if flags.Changed("email") {
				update.Email = &email
			}
			if flags.Changed("phone") {
				update.PhoneNumber = &phone
			}
			if flags.Changed("image-url") {
				update.ProfileImageURL = &image
			}
			if update.IsEmpty() {
				return fmt.Errorf("nothing to update: pass at least one field flag")
			}

			profile, err := a.Profiles.UpdateProfile(ctx, update)
			if err != nil {
				return err
			}
			return o.renderProfile(cmd, profile)
		}),
	}

	flags := cmd.Flags()
	flags.StringVar(&firstName, "first-name", "", "first name")
	flags.StringVar(&lastName, "last-name", "", "last name")
	flags.StringVar(&email, "email", "", "email address")
	flags.StringVar(&phone, "phone", "", "phone number")
	flags.StringVar(&image, "image-url", "", "profile image URL")
	return cmd
}

func (o *rootOptions) renderProfile(cmd *cobra.Command, p *models.Profile) error {
	if p == nil {
		return fmt.Errorf("no profile returned")
	}
	return o.render(cmd, p, func(w io.Writer) error {
		return printTable(w, []string{"FIELD", "VALUE"}, [][]string{
			{"id", fmt.Sprint(p.ID)},
			{"email", p.Email},
			{"first name", utils.CoalesceString(p.FirstName, "-")},
			{"last name", utils.CoalesceString(p.LastName, "-")},
			{"phone", utils.CoalesceString(p.PhoneNumber, "-")},
			{"image", utils.CoalesceString(p.ProfileImageURL, "-")},
		})
	})
}

//Personal.AI order the ending
