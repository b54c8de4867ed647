// Package app wires configuration, storage, the credential backend, the
// session store, the router and the catalogue into the two front ends.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/auth/hosted"
	"github.com/dmitrijs2005/shiciyaji/internal/auth/local"
	"github.com/dmitrijs2005/shiciyaji/internal/catalogue"
	"github.com/dmitrijs2005/shiciyaji/internal/cli"
	"github.com/dmitrijs2005/shiciyaji/internal/config"
	"github.com/dmitrijs2005/shiciyaji/internal/logging"
	"github.com/dmitrijs2005/shiciyaji/internal/repositories/metadata"
	"github.com/dmitrijs2005/shiciyaji/internal/router"
	"github.com/dmitrijs2005/shiciyaji/internal/session"
	"github.com/dmitrijs2005/shiciyaji/internal/web"
)

// Seams for tests.
var (
	openSQLite   = metadata.OpenSQLite
	openPostgres = catalogue.OpenPostgres
)

var ErrNotLocalMode = errors.New("test users can only be seeded in local auth mode")

type App struct {
	config *config.Config
	logger logging.Logger

	localDB     *sql.DB
	catalogueDB *sql.DB

	backend   auth.Backend
	seeder    *local.Backend
	store     *session.Store
	table     *router.Table
	nav       *router.Navigator
	catalogue *catalogue.Service
}

// New opens the stores named by c and builds the session core. The initial
// session check is started before New returns.
func New(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.Debug, logOut)
	if err != nil {
		return nil, err
	}

	a := &App{config: c, logger: logger}

	a.localDB, err = openSQLite(ctx, c.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("local db init error: %w", err)
	}

	switch c.AuthMode {
	case config.AuthModeHosted:
		provider := hosted.NewGoTrueProvider(c.SupabaseURL, c.SupabaseAnonKey, &http.Client{Timeout: c.HTTPTimeout})
		a.backend = hosted.New(provider, metadata.NewSQLiteRepository(a.localDB), logger)
	default:
		lb := local.New(a.localDB, logger)
		a.backend, a.seeder = lb, lb
		// The fixture accounts are installed on every start; an existing
		// account list is left alone.
		if _, err := lb.SeedTestUsers(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("seed test users: %w", err)
		}
	}

	var storeOpts []session.Option
	if c.DatabaseDSN != "" {
		a.catalogueDB, err = openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("catalogue db init error: %w", err)
		}

		var svcOpts []catalogue.ServiceOption
		if c.S3Bucket != "" {
			svcOpts = append(svcOpts, catalogue.WithAvatarSigner(catalogue.NewS3AvatarSigner(catalogue.S3Options{
				Bucket:    c.S3Bucket,
				Region:    c.S3Region,
				Endpoint:  c.S3Endpoint,
				AccessKey: c.S3AccessKey,
				SecretKey: c.S3SecretKey,
				TTL:       c.AvatarURLTTL,
			})))
		}
		a.catalogue = catalogue.NewService(catalogue.NewPostgresRepository(a.catalogueDB), logger, svcOpts...)
		storeOpts = append(storeOpts, session.WithEditPermissionChecker(a.catalogue))
	} else {
		logger.Warn(ctx, "no catalogue database configured, catalogue pages are disabled")
	}

	a.store = session.NewStore(a.backend, logger, storeOpts...)
	a.store.Start(ctx)

	a.table = router.NewTable(router.DefaultRoutes())
	a.nav = router.NewNavigator(a.table, a.store, logger)

	logger.Info(ctx, "app initialised", "auth_mode", c.AuthMode, "catalogue", a.catalogue != nil)
	return a, nil
}

func (a *App) Session() *session.Store { return a.store }

func (a *App) Routes() *router.Table { return a.table }

func (a *App) Logger() logging.Logger { return a.logger }

// cliCatalogue keeps a nil service a nil interface.
func (a *App) cliCatalogue() cli.Catalogue {
	if a.catalogue == nil {
		return nil
	}
	return a.catalogue
}

func (a *App) webCatalogue() web.Catalogue {
	if a.catalogue == nil {
		return nil
	}
	return a.catalogue
}

// RunShell runs the interactive terminal front end on in and out.
func (a *App) RunShell(ctx context.Context, in io.Reader, out io.Writer) error {
	return cli.NewApp(a.store, a.nav, a.cliCatalogue(), a.logger, in, out).Run(ctx)
}

// RunServer serves the web front end until ctx is cancelled.
func (a *App) RunServer(ctx context.Context) error {
	return web.NewServer(a.config.HTTPAddr, a.store, a.table, a.webCatalogue(), a.logger).Run(ctx)
}

// SeedTestUsers installs the fixture accounts of the local backend.
func (a *App) SeedTestUsers(ctx context.Context) (bool, error) {
	if a.seeder == nil {
		return false, ErrNotLocalMode
	}
	return a.seeder.SeedTestUsers(ctx)
}

// Close waits for a pending session check and closes the databases.
func (a *App) Close() error {
	if a.store != nil {
		_ = a.store.WaitIdle(context.Background())
	}

	var errs []error
	if a.catalogueDB != nil {
		errs = append(errs, a.catalogueDB.Close())
	}
	if a.localDB != nil {
		errs = append(errs, a.localDB.Close())
	}
	if s, ok := a.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	return errors.Join(errs...)
}

// WithSignals returns a context cancelled on SIGINT, SIGTERM or SIGQUIT.
func WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
