package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/uats/internal/app"
	"github.com/turtacn/uats/internal/application/dto"
	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/pkg/constants"
	"github.com/turtacn/uats/pkg/utils"
)

func newDevicesCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"keys"},
		Short:   "Manage security keys",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered security keys",
		Args:  cobra.NoArgs,
		RunE: o.run(true, func(ctx context.Context, cmd *cobra.Command, _ []string, a *app.App) error {
			a.WebAuthn.LoadDevices(ctx)
			// placeholder devices still render; the queued warning says they are not real
			if msg, failed := a.Errors.Get(constants.ErrorKeyWebAuthnDevices); failed && len(a.Store.State().WebAuthnDevices) == 0 {
				return fmt.Errorf("%s", msg)
			}
			return o.renderDevices(cmd, a)
		}),
	}

	registerCmd := &cobra.Command{
		Use:   "register [name]",
		Short: "Register a new security key",
		Args:  cobra.MaximumNArgs(1),
		RunE: o.run(true, func(ctx context.Context, cmd *cobra.Command, args []string, a *app.App) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			if err := a.WebAuthn.RegisterDevice(ctx, name); err != nil {
				return err
			}
			return o.renderDevices(cmd, a)
		}),
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Verify a registered security key with an authentication ceremony",
		Args:  cobra.NoArgs,
		RunE: o.run(true, func(ctx context.Context, cmd *cobra.Command, _ []string, a *app.App) error {
			if err := a.WebAuthn.ValidateDevice(ctx); err != nil {
				return err
			}
			return o.render(cmd, map[string]bool{"verified": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "Security key verified")
				return err
			})
		}),
	}

	deleteCmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a registered security key",
		Args:    cobra.ExactArgs(1),
		RunE: o.run(true, func(ctx context.Context, cmd *cobra.Command, args []string, a *app.App) error {
			if err := a.WebAuthn.DeleteDevice(ctx, args[0]); err != nil {
				return err
			}
			return o.renderDevices(cmd, a)
		}),
	}

	cmd.AddCommand(listCmd, registerCmd, validateCmd, deleteCmd)
	return cmd
}

func (o *rootOptions) renderDevices(cmd *cobra.Command, a *app.App) error {
	resp := dto.NewDevicesResponse(a.Store.State())
	return o.render(cmd, resp, func(w io.Writer) error {
		if len(resp.Devices) == 0 {
			_, err := fmt.Fprintln(w, "No security keys registered")
			return err
		}
		rows := make([][]string, 0, len(resp.Devices))
		for _, d := range resp.Devices {
			rows = append(rows, deviceRow(d))
		}
		return printTable(w, []string{"ID", "NAME", "TYPE", "CREATED", "LAST USED", "SIGNS"}, rows)
	})
}

func deviceRow(d models.DeviceRecord) []string {
	lastUsed := "never"
	if d.LastUsed != nil {
		lastUsed = d.LastUsed.Format(time.DateTime)
	}
	return []string{
		d.ID,
		utils.Truncate(d.Name, 32),
		utils.CoalesceString(d.DeviceType, "-"),
		formatTime(d.CreatedAt),
		lastUsed,
		strconv.FormatUint(uint64(d.SignCount), 10),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return strings.TrimSuffix(t.Format(time.DateTime), " 00:00:00")
}

//Personal.AI order the ending
