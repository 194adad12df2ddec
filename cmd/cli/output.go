package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/turtacn/uats/internal/domain/models"
	"github.com/turtacn/uats/internal/domain/service"
	"github.com/turtacn/uats/internal/infrastructure/softkey"
)

// errPromptDismissed reads as a cancelled ceremony, as a dismissed browser prompt does.
var errPromptDismissed = fmt.Errorf("security-key prompt dismissed: %w", service.ErrCeremonyNotAllowed)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printTable writes tab-separated rows under a header, aligned into columns.
func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// render prints v as JSON, or calls table for the table format.
func (o *rootOptions) render(cmd *cobra.Command, v interface{}, table func(io.Writer) error) error {
	if o.output == "json" {
		return printJSON(cmd.OutOrStdout(), v)
	}
	return table(cmd.OutOrStdout())
}

func printNotifications(w io.Writer, notifications []models.Notification) {
	for _, n := range notifications {
		fmt.Fprintf(w, "[%s] %s\n", n.Severity, n.Message)
	}
}

// approver plays the user at the software authenticator's prompt. With --yes every prompt is
// approved; on a terminal the user is asked; anywhere else the prompt is dismissed.
func (o *rootOptions) approver(cmd *cobra.Command) softkey.ApproveFunc {
	if o.yes {
		return nil
	}
	return func(ctx context.Context, op string, rpID string) error {
		in := cmd.InOrStdin()
		f, ok := in.(*os.File)
		if !ok || !term.IsTerminal(int(f.Fd())) {
			return fmt.Errorf("%w: not a terminal, rerun with --yes", errPromptDismissed)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Use your security key to %s for %s? [Y/n] ", op, rpID)
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %v", errPromptDismissed, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "", "y", "yes":
			return nil
		default:
			return errPromptDismissed
		}
	}
}

//Personal.AI order the ending
