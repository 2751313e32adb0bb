// Package server wires and runs the reference group server: the account
// gRPC service and the group HTTP API.
package server

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophgroups/internal/logging"
	"github.com/dmitrijs2005/gophgroups/internal/server/config"
	"github.com/dmitrijs2005/gophgroups/internal/server/httpapi"
	"github.com/dmitrijs2005/gophgroups/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophgroups/internal/server/repositories/groups"
	"github.com/dmitrijs2005/gophgroups/internal/server/services"
	"github.com/dmitrijs2005/gophgroups/internal/zkgroup"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophgroups/internal/server/grpc"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	params   zkgroup.ServerSecretParams
	accounts *services.AccountService
	groups   *services.GroupService
	avatars  *services.LocalAvatarStore
}

// loadServerParams uses the configured seed, or a fresh key when none is set.
func loadServerParams(seed string) (zkgroup.ServerSecretParams, error) {
	if seed == "" {
		return zkgroup.GenerateServerSecretParams()
	}
	raw, err := hex.DecodeString(seed)
	if err != nil {
		return zkgroup.ServerSecretParams{}, fmt.Errorf("server seed: %w", err)
	}
	return zkgroup.ServerSecretParamsFromSeed(raw)
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, "info")

	params, err := loadServerParams(c.ServerSecretSeed)
	if err != nil {
		return nil, fmt.Errorf("server params: %w", err)
	}

	var presigner services.Presigner
	var local *services.LocalAvatarStore
	if c.S3Bucket != "" {
		presigner = services.NewS3Presigner(c)
	} else {
		local = services.NewLocalAvatarStore(c.PublicURL, c.AvatarURLValidity, nil)
		presigner = local
	}

	return &App{
		config:   c,
		logger:   logger,
		params:   params,
		accounts: services.NewAccountService(accounts.NewInMemoryRepository(), params, c.ProfileCredentialValidity, nil),
		groups:   services.NewGroupService(groups.NewInMemoryRepository(), params, presigner, nil, logger),
		avatars:  local,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) runHTTPServer(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           httpapi.NewRouter(httpapi.NewHandler(app.accounts, app.groups, app.avatars, app.logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)
	app.logger.Info(ctx, "Starting app...", "server_public_params", app.params.PublicParams().String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accounts).Run(ctx)
	})
	g.Go(func() error {
		return app.runHTTPServer(ctx)
	})

	if err := g.Wait(); err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
		return err
	}
	return nil
}
