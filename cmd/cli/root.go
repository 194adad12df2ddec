package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/uats/internal/app"
	"github.com/turtacn/uats/internal/config"
	"github.com/turtacn/uats/internal/infrastructure/monitoring"
	"github.com/turtacn/uats/pkg/constants"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configFile string
	apiURL     string
	token      string
	output     string
	verbose    bool
	yes        bool
	timeout    time.Duration
}

// runFunc is the body of a command, run against a started console core.
type runFunc func(ctx context.Context, cmd *cobra.Command, args []string, a *app.App) error

// NewRootCommand builds the `uats-admin` command tree.
// NewRootCommand 构建 `uats-admin` 命令树。
func NewRootCommand() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:   "uats-admin",
		Short: "Command-line console for the Unified Asset Transfer System.",
		Long: `uats-admin drives the UATS console core from a terminal: it signs in with an
identity-provider token, manages security keys, shows balances and history and issues
asset transfers against the backend API.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&o.configFile, "config", "", "config file (default ./config.yaml or /etc/uats/config.yaml)")
	flags.StringVar(&o.apiURL, "api", "", "backend base URL, overrides api.base_url")
	flags.StringVar(&o.token, "token", "", "identity-provider session token, overrides identity.token")
	flags.StringVarP(&o.output, "output", "o", "table", "output format: table or json")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "log at the configured level instead of warn")
	flags.BoolVarP(&o.yes, "yes", "y", false, "approve security-key prompts without asking")
	flags.DurationVar(&o.timeout, "timeout", 0, "overall command timeout (default api.timeout plus a margin)")

	root.AddCommand(
		newSessionCommand(o),
		newConfigCommand(o),
		newDevicesCommand(o),
		newBalancesCommand(o),
		newHistoryCommand(o),
		newTransferCommand(o),
		newProfileCommand(o),
	)
	return root
}

// Execute is the main entry point for the CLI application.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(nil, o.configFile).Load()
	if err != nil {
		return nil, err
	}
	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	if o.token != "" {
		cfg.Identity.Token = o.token
	}
	if !o.verbose {
		cfg.Log.Level = string(constants.LogLevelWarn)
	}
	return cfg, nil
}

// run wraps fn: it assembles and starts the core, waits for the bearer token when the
// command needs a session, traces the command and prints the queued notifications.
func (o *rootOptions) run(needSession bool, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if o.output != "table" && o.output != "json" {
			return fmt.Errorf("unknown output format %q", o.output)
		}
		cfg, err := o.loadConfig()
		if err != nil {
			return err
		}

		timeout := o.timeout
		if timeout <= 0 {
			timeout = cfg.API.Timeout + 10*time.Second
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		log := monitoring.NewZapLoggerTo(&cfg.Log, cmd.ErrOrStderr())
		a, err := app.New(ctx, cfg, log, app.Options{Approve: o.approver(cmd)})
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()
		// notifications are printed when the command ends, so none may expire before
		a.Notifier.SetDefaultDuration(0)

		if err := a.Start(ctx); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}
		if needSession {
			if _, err := a.AwaitToken(ctx); err != nil {
				return fmt.Errorf("sign in: %w", err)
			}
		}

		err = monitoring.TraceOperation(ctx, a.Tracing, "uats-admin "+cmd.Name(), func(ctx context.Context) error {
			return fn(ctx, cmd, args, a)
		})
		printNotifications(cmd.ErrOrStderr(), a.Store.State().Notifications)
		return err
	}
}

//Personal.AI order the ending
