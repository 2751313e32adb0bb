package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/gophgroups/internal/client/client"
	"github.com/dmitrijs2005/gophgroups/internal/client/codec"
	"github.com/dmitrijs2005/gophgroups/internal/client/config"
	"github.com/dmitrijs2005/gophgroups/internal/client/services"
	"github.com/dmitrijs2005/gophgroups/internal/logging"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
)

// App holds the services behind the groupsync commands.
type App struct {
	config     *config.Config
	auth       services.AuthService
	recipients services.RecipientService
	profiles   services.ProfileCredentialService
	groups     services.GroupService
	avatars    services.AvatarService
	closers    []func() error
	reader     *bufio.Reader
	out        io.Writer
	logger     logging.Logger
}

// NewApp opens the local database and wires the account client, the group
// service executor and the client services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if c.ServerPublicParams == "" {
		return nil, errors.New("server public params are not configured")
	}
	server, err := zkgroup.ParseServerPublicParams(c.ServerPublicParams)
	if err != nil {
		return nil, fmt.Errorf("server public params: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, c.LogLevel)

	repos, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	accounts, err := client.NewGRPCClient(c.AccountEndpointAddr)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: c.RequestTimeout}
	exec, err := client.NewHTTPExecutor(c.ServiceURL, httpClient, client.RetryPolicy{
		MaxRetries: c.MaxRetries,
		BaseDelay:  c.RetryBaseDelay,
		MaxDelay:   c.RetryMaxDelay,
	}, logger)
	if err != nil {
		_ = accounts.Close()
		_ = repos.Close()
		return nil, err
	}

	creds, err := services.NewAuthCredentialService(exec, server, c.CredentialCacheSize, nil, logger)
	if err != nil {
		_ = accounts.Close()
		_ = repos.Close()
		return nil, err
	}

	auth := services.NewAuthService(accounts, repos.DB)
	recipients := services.NewRecipientService(repos.DB)
	fetcher := services.NewProfileFetcher(accounts, repos.Profiles, server, nil)
	profiles := services.NewProfileCredentialService(repos.Profiles, fetcher, recipients, nil, logger)
	gc := codec.New(server, nil)

	return &App{
		config:     c,
		auth:       auth,
		recipients: recipients,
		profiles:   profiles,
		groups: services.NewGroupService(services.GroupDeps{
			Identity:    auth,
			Resolver:    recipients,
			Profiles:    profiles,
			Credentials: creds,
			Store:       repos.Groups,
			Codec:       gc,
			Executor:    exec,
			Logger:      logger,
		}),
		avatars: services.NewAvatarService(auth, creds, gc, exec, httpClient, logger),
		closers: []func() error{accounts.Close, repos.Close},
		reader:  bufio.NewReader(os.Stdin),
		logger:  logger,
	}, nil
}

// Close releases the account connection and the database.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// resume authenticates the account client with the stored identity.
func (a *App) resume(ctx context.Context) (services.Identity, error) {
	id, err := a.auth.Resume(ctx)
	if err != nil {
		return services.Identity{}, fmt.Errorf("%w (run 'groupsync register' or 'groupsync login')", err)
	}
	return id, nil
}
