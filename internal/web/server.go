// Package web is the HTTP front end: a gin engine serving the route table
// as JSON pages behind the route guard, plus the session endpoints.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/catalogue"
	"github.com/dmitrijs2005/shiciyaji/internal/logging"
	"github.com/dmitrijs2005/shiciyaji/internal/router"
	"github.com/dmitrijs2005/shiciyaji/internal/session"
)

// Catalogue is the part of the catalogue service the pages use.
type Catalogue interface {
	Poems(ctx context.Context) ([]catalogue.Poem, error)
	Poem(ctx context.Context, id string) (*catalogue.Poem, error)
	Search(ctx context.Context, params catalogue.SearchParams) ([]catalogue.Poem, error)
	Authors(ctx context.Context) ([]catalogue.Author, error)
	Categories(ctx context.Context) ([]catalogue.Category, error)
	Stats(ctx context.Context) (catalogue.Stats, error)
	AddPoem(ctx context.Context, user *auth.Identity, p catalogue.NewPoem) (*catalogue.Poem, error)
	AvatarURL(ctx context.Context, a *catalogue.Author) string
}

const shutdownTimeout = 5 * time.Second

type Server struct {
	address   string
	session   *session.Store
	table     *router.Table
	catalogue Catalogue
	logger    logging.Logger
	engine    *gin.Engine
}

// NewServer builds the engine. cat may be nil; catalogue pages then answer
// 503.
func NewServer(address string, s *session.Store, table *router.Table, cat Catalogue, logger logging.Logger) *Server {
	srv := &Server{
		address:   address,
		session:   s,
		table:     table,
		catalogue: cat,
		logger:    logger.With("module", "web"),
	}
	srv.engine = srv.routes()
	return srv
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	e := gin.New()
	e.Use(s.recovery(), s.accessLog(), s.guard())

	e.GET("/", func(c *gin.Context) {}) // route redirect, answered by guard
	e.GET("/home", s.home)
	e.GET("/poems", s.poemList)
	e.GET("/poem/:id", s.poemDetail)
	e.GET("/authors", s.authorList)
	e.GET("/search", s.search)
	e.GET("/admin", s.admin)
	e.GET("/add-poem", s.addPoemForm)
	e.POST("/add-poem", s.addPoem)
	e.GET("/login", s.loginForm)
	e.POST("/login", s.login)
	e.GET("/register", s.registerForm)
	e.POST("/register", s.register)
	e.POST("/logout", s.logout)
	e.GET("/session", s.sessionState)
	e.NoRoute(s.notFound)
	return e
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting web server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
