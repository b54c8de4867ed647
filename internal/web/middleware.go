package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/shiciyaji/internal/router"
)

const targetKey = "route_target"

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
					Error:   "internal",
					Message: "internal server error",
				})
			}
		}()
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// guard runs the route guard for page requests. Route redirects and guard
// redirects become 302 responses; an allowed target is stored on the
// context for the page handler.
func (s *Server) guard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Next()
			return
		}

		target, err := s.table.Resolve(c.Request.URL.RequestURI())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "bad_path", Message: err.Error()})
			return
		}

		if target.Redirect != "" {
			c.Redirect(http.StatusFound, target.Redirect)
			c.Abort()
			return
		}

		d := router.Guard(c.Request.Context(), target, s.session)
		if d.Kind == router.Redirect {
			s.logger.Debug(c.Request.Context(), "guard redirect", "from", target.FullPath, "to", d.Location())
			c.Redirect(http.StatusFound, d.Location())
			c.Abort()
			return
		}

		c.Set(targetKey, target)
		c.Next()
	}
}

func currentTarget(c *gin.Context) router.Target {
	if v, ok := c.Get(targetKey); ok {
		if t, ok := v.(router.Target); ok {
			return t
		}
	}
	return router.Target{}
}
