package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/shiciyaji/internal/catalogue"
)

var errNoCatalogue = errors.New("catalogue database is not configured")

type authorView struct {
	catalogue.Author
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type poemView struct {
	*catalogue.Poem
	CanEdit bool `json:"canEdit"`
}

func (s *Server) catalogueOr503(c *gin.Context) bool {
	if s.catalogue == nil {
		s.fail(c, errNoCatalogue)
		return false
	}
	return true
}

func (s *Server) home(c *gin.Context) {
	data := gin.H{"user": s.session.User()}
	if s.catalogue != nil {
		poems, err := s.catalogue.Poems(c.Request.Context())
		if err != nil {
			s.fail(c, err)
			return
		}
		if len(poems) > 3 {
			poems = poems[:3]
		}
		data["latest"] = poems
	}
	s.renderPage(c, http.StatusOK, data)
}

func (s *Server) poemList(c *gin.Context) {
	if !s.catalogueOr503(c) {
		return
	}
	var params catalogue.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()})
		return
	}

	poems, err := s.catalogue.Search(c.Request.Context(), params)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderPage(c, http.StatusOK, gin.H{"poems": poems})
}

func (s *Server) poemDetail(c *gin.Context) {
	if !s.catalogueOr503(c) {
		return
	}
	ctx := c.Request.Context()

	p, err := s.catalogue.Poem(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderPage(c, http.StatusOK, poemView{Poem: p, CanEdit: s.session.CanEditPoem(ctx, p.ID)})
}

func (s *Server) authorList(c *gin.Context) {
	if !s.catalogueOr503(c) {
		return
	}
	ctx := c.Request.Context()

	authors, err := s.catalogue.Authors(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	views := make([]authorView, len(authors))
	for i := range authors {
		views[i] = authorView{Author: authors[i], AvatarURL: s.catalogue.AvatarURL(ctx, &authors[i])}
	}
	s.renderPage(c, http.StatusOK, gin.H{"authors": views})
}

func (s *Server) search(c *gin.Context) {
	if !s.catalogueOr503(c) {
		return
	}
	var params catalogue.SearchParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()})
		return
	}

	data := gin.H{"params": params, "results": []catalogue.Poem{}}
	if !params.IsZero() {
		poems, err := s.catalogue.Search(c.Request.Context(), params)
		if err != nil {
			s.fail(c, err)
			return
		}
		data["results"] = poems
	}
	s.renderPage(c, http.StatusOK, data)
}

func (s *Server) admin(c *gin.Context) {
	if !s.catalogueOr503(c) {
		return
	}
	ctx := c.Request.Context()

	st, err := s.catalogue.Stats(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	categories, err := s.catalogue.Categories(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderPage(c, http.StatusOK, gin.H{"stats": st, "categories": categories})
}

func (s *Server) addPoemForm(c *gin.Context) {
	if !s.catalogueOr503(c) {
		return
	}
	categories, err := s.catalogue.Categories(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.renderPage(c, http.StatusOK, gin.H{"categories": categories})
}

// addPoem is not a page request, so the guard middleware does not see it;
// it checks the session itself.
func (s *Server) addPoem(c *gin.Context) {
	user := s.session.User()
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthenticated", Message: "please log in"})
		return
	}
	if !s.catalogueOr503(c) {
		return
	}

	var in catalogue.NewPoem
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()})
		return
	}

	p, err := s.catalogue.AddPoem(c.Request.Context(), user, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) notFound(c *gin.Context) {
	s.renderPage(c, http.StatusNotFound, gin.H{"path": c.Request.URL.Path})
}
