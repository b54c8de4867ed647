// Package router holds the application's route table, the per-navigation
// Guard and the Navigator that runs it before every navigation.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// DefaultTitle is used for routes that declare no title.
const DefaultTitle = "诗词雅集"

// CatchAll is the Path of a route that matches anything not matched before
// it.
const CatchAll = "*"

var ErrNoRoute = errors.New("no route matches path")

type Meta struct {
	Title         string `json:"title,omitempty"`
	Description   string `json:"description,omitempty"`
	RequiresAuth  bool   `json:"requiresAuth,omitempty"`
	RequiresAdmin bool   `json:"requiresAdmin,omitempty"`
}

// Guarded reports whether navigation to the route needs a session check.
func (m Meta) Guarded() bool {
	return m.RequiresAuth || m.RequiresAdmin
}

// Route is one entry of the table. Path segments starting with ":" match
// any single segment. A route with Redirect set is never displayed.
type Route struct {
	Path     string `json:"path"`
	Name     string `json:"name,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Meta     Meta   `json:"meta"`
}

// Target is a resolved navigation destination.
type Target struct {
	Name     string
	Path     string
	FullPath string
	Query    url.Values
	Params   map[string]string
	Meta     Meta
	Redirect string
}

func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Redirect: "/login"},
		{Path: "/home", Name: "Home", Meta: Meta{
			Title: "首页 - 诗词雅集", Description: "探索中华诗词的魅力", RequiresAuth: true}},
		{Path: "/poems", Name: "PoemList", Meta: Meta{
			Title: "诗词列表 - 诗词雅集", Description: "浏览所有诗词作品"}},
		{Path: "/poem/:id", Name: "PoemDetail", Meta: Meta{
			Title: "诗词详情 - 诗词雅集", Description: "查看诗词详细内容"}},
		{Path: "/authors", Name: "AuthorList", Meta: Meta{
			Title: "作者列表 - 诗词雅集", Description: "了解历代诗词作者"}},
		{Path: "/search", Name: "Search", Meta: Meta{
			Title: "搜索 - 诗词雅集", Description: "搜索诗词和作者"}},
		{Path: "/admin", Name: "Admin", Meta: Meta{
			Title: "管理 - 诗词雅集", Description: "管理诗词数据和作者信息", RequiresAuth: true, RequiresAdmin: true}},
		{Path: "/add-poem", Name: "AddPoem", Meta: Meta{
			Title: "添加诗词 - 诗词雅集", Description: "添加新的诗词作品", RequiresAuth: true}},
		{Path: "/login", Name: "Login", Meta: Meta{
			Title: "登录 - 诗词雅集", Description: "登录诗词雅集账户"}},
		{Path: "/register", Name: "Register", Meta: Meta{
			Title: "注册 - 诗词雅集", Description: "注册诗词雅集账户"}},
		{Path: CatchAll, Name: "NotFound", Meta: Meta{
			Title: "页面未找到 - 诗词雅集", Description: "您访问的页面不存在"}},
	}
}

type Table struct {
	routes []Route
}

// NewTable keeps routes in the given order; the first match wins.
func NewTable(routes []Route) *Table {
	return &Table{routes: append([]Route(nil), routes...)}
}

func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Resolve matches fullPath, which may carry a query string, against the
// table.
func (t *Table) Resolve(fullPath string) (Target, error) {
	u, err := url.Parse(fullPath)
	if err != nil {
		return Target{}, fmt.Errorf("parse %q: %w", fullPath, err)
	}
	if !strings.HasPrefix(u.Path, "/") {
		return Target{}, fmt.Errorf("path %q is not absolute", fullPath)
	}

	// Matching runs on the decoded path, the same one HTTP routers
	// dispatch on. Path and FullPath are re-escaped from it.
	decoded := path.Clean(u.Path)
	p := (&url.URL{Path: decoded}).EscapedPath()
	full := p
	if u.RawQuery != "" {
		full += "?" + u.RawQuery
	}

	for _, r := range t.routes {
		params, ok := match(r.Path, decoded)
		if !ok {
			continue
		}
		return Target{
			Name:     r.Name,
			Path:     p,
			FullPath: full,
			Query:    u.Query(),
			Params:   params,
			Meta:     r.Meta,
			Redirect: r.Redirect,
		}, nil
	}
	return Target{}, fmt.Errorf("%w: %s", ErrNoRoute, p)
}

func match(pattern, p string) (map[string]string, bool) {
	if pattern == CatchAll {
		return map[string]string{"pathMatch": strings.TrimPrefix(p, "/")}, true
	}

	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(p, "/"), "/")
	if len(want) != len(got) {
		return nil, false
	}

	params := map[string]string{}
	for i, seg := range want {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if got[i] == "" {
				return nil, false
			}
			params[name] = got[i]
			continue
		}
		if seg != got[i] {
			return nil, false
		}
	}
	return params, true
}
