package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/catalogue"
	"github.com/dmitrijs2005/shiciyaji/internal/logging"
	"github.com/dmitrijs2005/shiciyaji/internal/router"
	"github.com/dmitrijs2005/shiciyaji/internal/session"
)

// Catalogue is the part of the catalogue service the pages read from.
type Catalogue interface {
	Poems(ctx context.Context) ([]catalogue.Poem, error)
	Poem(ctx context.Context, id string) (*catalogue.Poem, error)
	Search(ctx context.Context, params catalogue.SearchParams) ([]catalogue.Poem, error)
	Authors(ctx context.Context) ([]catalogue.Author, error)
	Stats(ctx context.Context) (catalogue.Stats, error)
	AddPoem(ctx context.Context, user *auth.Identity, p catalogue.NewPoem) (*catalogue.Poem, error)
	AvatarURL(ctx context.Context, a *catalogue.Author) string
}

type App struct {
	session   *session.Store
	nav       *router.Navigator
	catalogue Catalogue
	logger    logging.Logger

	reader *bufio.Reader
	out    io.Writer
}

// NewApp builds the terminal front end. cat may be nil when no catalogue
// database is configured; catalogue pages then say so instead of failing.
func NewApp(s *session.Store, nav *router.Navigator, cat Catalogue, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		session:   s,
		nav:       nav,
		catalogue: cat,
		logger:    logger.With("component", "cli"),
		reader:    bufio.NewReader(in),
		out:       out,
	}
}

// Run waits for the initial session check, opens the start page and runs
// the REPL until exit or end of input.
func (a *App) Run(ctx context.Context) error {
	a.println("Welcome to " + router.DefaultTitle + " (type 'help' for commands)")

	if err := a.session.WaitIdle(ctx); err != nil {
		return err
	}

	start := "/"
	if a.session.IsAuthenticated() {
		start = "/home"
	}
	if err := a.Go(ctx, start); err != nil {
		a.println("Error:", err)
	}

	runREPL(ctx, a, a.status, a.reader, a.out)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) status() string {
	snap := a.session.Snapshot()
	switch {
	case snap.IsLoading:
		return "checking"
	case snap.IsAuthenticated():
		return fmt.Sprintf("%s %s", snap.User.Name(), snap.User.Role)
	default:
		return "guest"
	}
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
