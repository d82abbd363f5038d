package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/wellbeing/internal/client/auth"
	"github.com/dmitrijs2005/wellbeing/internal/client/config"
	"github.com/dmitrijs2005/wellbeing/internal/client/models"
	"github.com/dmitrijs2005/wellbeing/internal/client/objects"
	"github.com/dmitrijs2005/wellbeing/internal/client/profile"
	"github.com/dmitrijs2005/wellbeing/internal/client/records"
	"github.com/dmitrijs2005/wellbeing/internal/client/repositories"
	"github.com/dmitrijs2005/wellbeing/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/wellbeing/internal/client/session"
	"github.com/dmitrijs2005/wellbeing/internal/logging"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	hub     *auth.Hub
	ctrl    *session.Controller
	closers []func() error
}

// NewApp opens the local session store, prepares the remote stores and
// wires the auth hub, profile repository and session controller.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, c.LogLevel, false)

	local, err := repositories.InitDatabase(ctx, c.LocalDBPath)
	if err != nil {
		logger.Error(ctx, "error initializing local database", "error", err)
		return nil, err
	}

	remote, err := records.Open(c.DatabaseDSN)
	if err != nil {
		_ = local.DB.Close()
		return nil, err
	}

	closeAll := func() {
		_ = remote.Close()
		_ = local.DB.Close()
	}

	blobs, err := objects.New(ctx, c)
	if err != nil {
		closeAll()
		return nil, err
	}

	var snapshots metadata.Repository = local.Metadata
	if c.SnapshotPassphrase != "" {
		key, err := local.SnapshotKey(ctx, c.SnapshotPassphrase)
		if err != nil {
			closeAll()
			return nil, err
		}
		snapshots = metadata.NewSealedRepository(local.Metadata, key)
	}

	hub, err := auth.NewHub(ctx, []byte(c.JWTSecret), snapshots, logger)
	if err != nil {
		closeAll()
		return nil, err
	}

	repo := profile.NewRepository(records.NewPostgresStore(remote), blobs, c.S3Bucket, logger)
	ctrl := session.NewController(hub, repo, logger, c.FetchTimeout)

	app := newApp(c, logger, hub, ctrl)
	app.closers = append(app.closers, remote.Close, local.DB.Close)
	return app, nil
}

func newApp(c *config.Config, logger logging.Logger, hub *auth.Hub, ctrl *session.Controller) *App {
	return &App{config: c, logger: logger, hub: hub, ctrl: ctrl}
}

// Run starts the controller and the view printer, then blocks in the REPL
// on stdin until the user exits.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer a.close()

	var wg sync.WaitGroup
	states, unsubscribe := a.ctrl.Subscribe()

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := a.ctrl.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error(ctx, "session controller stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		watchStates(ctx, states)
	}()

	printlnFn("Welcome to wellbeing (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))

	cancel()
	unsubscribe()
	wg.Wait()
}

func (a *App) close() {
	a.hub.Close()
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
}

// watchStates prints every view the controller publishes.
func watchStates(ctx context.Context, states <-chan models.ViewState) {
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			printlnFn(renderState(st))
		}
	}
}

func (a *App) getStatus() string {
	st := a.ctrl.State()
	if st.Kind.Routed() && st.Profile.Username != "" {
		return fmt.Sprintf("(%s %s)", st.Profile.Username, st.Kind)
	}
	return fmt.Sprintf("(%s)", st.Kind)
}
