package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/router"
)

type credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registration struct {
	credentials
	DisplayName string `json:"displayName"`
}

type sessionView struct {
	State           string         `json:"state"`
	User            *auth.Identity `json:"user,omitempty"`
	IsLoading       bool           `json:"isLoading"`
	IsAuthenticated bool           `json:"isAuthenticated"`
	IsAdmin         bool           `json:"isAdmin"`
}

func (s *Server) currentSession() sessionView {
	snap := s.session.Snapshot()
	return sessionView{
		State:           snap.State.String(),
		User:            snap.User,
		IsLoading:       snap.IsLoading,
		IsAuthenticated: snap.IsAuthenticated(),
		IsAdmin:         snap.IsAdmin(),
	}
}

func (s *Server) sessionState(c *gin.Context) {
	c.JSON(http.StatusOK, s.currentSession())
}

func (s *Server) loginForm(c *gin.Context) {
	s.renderPage(c, http.StatusOK, gin.H{
		"redirect":        router.AfterLogin(currentTarget(c)),
		"isAuthenticated": s.session.IsAuthenticated(),
	})
}

func (s *Server) registerForm(c *gin.Context) {
	s.renderPage(c, http.StatusOK, gin.H{"autoSignIn": s.session.Backend().AutoSignIn()})
}

// login answers with the location the client should open next, taken from
// the redirect query the guard attached.
func (s *Server) login(c *gin.Context) {
	var in credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()})
		return
	}

	user, err := s.session.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	next := router.AfterLogin(router.Target{Query: c.Request.URL.Query()})
	c.JSON(http.StatusOK, gin.H{"user": user, "redirect": next})
}

func (s *Server) register(c *gin.Context) {
	var in registration
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()})
		return
	}

	err := s.session.Register(c.Request.Context(), in.Email, in.Password, in.DisplayName, auth.RoleUser)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, s.currentSession())
}

// logout always succeeds locally; an upstream revocation failure is only
// reported as a warning.
func (s *Server) logout(c *gin.Context) {
	body := gin.H{"ok": true}
	if err := s.session.Logout(c.Request.Context()); err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}
