package cli

import (
	"context"

	"github.com/dmitrijs2005/gophgroups/internal/client/config"
	"github.com/spf13/cobra"
)

// AppFactory builds the App once flags are parsed.
type AppFactory func(ctx context.Context, c *config.Config) (*App, error)

type runner struct {
	cfg    *config.Config
	newApp AppFactory
}

// run adapts a command body that needs the App. The App lives for one
// command.
func (r *runner) run(fn func(ctx context.Context, a *App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := r.newApp(cmd.Context(), r.cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.out == nil {
			a.out = cmd.OutOrStdout()
		}
		return fn(cmd.Context(), a, args)
	}
}

// NewRootCommand builds the groupsync command tree. Flags write into cfg,
// so values already loaded into it act as flag defaults.
func NewRootCommand(cfg *config.Config, newApp AppFactory) *cobra.Command {
	r := &runner{cfg: cfg, newApp: newApp}

	var configPath string
	root := &cobra.Command{
		Use:          "groupsync",
		Short:        "Client for encrypted group membership",
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "path to JSON config file")
	f.StringVarP(&cfg.ServiceURL, "service-url", "s", cfg.ServiceURL, "group service base URL")
	f.StringVarP(&cfg.AccountEndpointAddr, "account-addr", "a", cfg.AccountEndpointAddr, "account service address and port")
	f.StringVarP(&cfg.DatabaseDSN, "db", "d", cfg.DatabaseDSN, "local database")
	f.StringVarP(&cfg.ServerPublicParams, "server-params", "k", cfg.ServerPublicParams, "server public params (hex)")
	f.IntVar(&cfg.CredentialCacheSize, "credential-cache", cfg.CredentialCacheSize, "auth credentials cached in memory, 0 disables")
	f.Uint64Var(&cfg.MaxRetries, "retries", cfg.MaxRetries, "retries of idempotent requests")
	f.DurationVar(&cfg.RetryBaseDelay, "retry-delay", cfg.RetryBaseDelay, "first retry delay")
	f.DurationVar(&cfg.RetryMaxDelay, "retry-max-delay", cfg.RetryMaxDelay, "maximum retry delay")
	f.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "request timeout")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	root.AddCommand(
		r.registerCommand(),
		r.loginCommand(),
		r.logoutCommand(),
		r.whoamiCommand(),
		r.pingCommand(),
		r.contactCommand(),
		r.groupCommand(),
	)
	return root
}

// Execute loads the configuration and runs the command named by args.
func Execute(ctx context.Context, args []string) error {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}
	root := NewRootCommand(cfg, NewApp)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
