package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/shiciyaji/internal/catalogue"
	"github.com/dmitrijs2005/shiciyaji/internal/router"
)

var errNoCatalogue = errors.New("catalogue database is not configured (set -dsn or YAJI_DATABASE_DSN)")

// Go navigates to fullPath and renders the page the navigation ends on.
func (a *App) Go(ctx context.Context, fullPath string) error {
	nav, err := a.nav.Navigate(ctx, fullPath)
	if err != nil {
		return err
	}

	a.printf("\n== %s ==\n", a.nav.Title())
	if d := a.nav.Description(); d != "" {
		a.println(d)
	}
	return a.render(ctx, nav.Target)
}

func (a *App) render(ctx context.Context, t router.Target) error {
	switch t.Name {
	case "Login":
		return a.loginForm(ctx, t)
	case "Register":
		return a.registerForm(ctx)
	case "AddPoem":
		return a.addPoemForm(ctx)
	case "Home":
		return a.homePage(ctx)
	case "NotFound":
		a.printf("Page not found: %s\n", t.FullPath)
		return nil
	}

	if a.catalogue == nil {
		return errNoCatalogue
	}

	switch t.Name {
	case "PoemList":
		return a.poemListPage(ctx)
	case "PoemDetail":
		return a.poemPage(ctx, t.Params["id"])
	case "AuthorList":
		return a.authorListPage(ctx)
	case "Search":
		return a.searchPage(ctx, t)
	case "Admin":
		return a.adminPage(ctx)
	}
	return fmt.Errorf("no page for route %q", t.Name)
}

func (a *App) homePage(ctx context.Context) error {
	a.printf("Welcome, %s!\n", a.session.DisplayName())
	if a.catalogue == nil {
		return nil
	}

	poems, err := a.catalogue.Poems(ctx)
	if err != nil {
		return err
	}
	if len(poems) > 3 {
		poems = poems[:3]
	}
	a.println("Latest poems:")
	a.printPoems(poems)
	return nil
}

func (a *App) poemListPage(ctx context.Context) error {
	poems, err := a.catalogue.Poems(ctx)
	if err != nil {
		return err
	}
	a.printPoems(poems)
	return nil
}

func (a *App) poemPage(ctx context.Context, id string) error {
	p, err := a.catalogue.Poem(ctx, id)
	if errors.Is(err, catalogue.ErrNotFound) {
		a.printf("Poem %s not found.\n", id)
		return nil
	}
	if err != nil {
		return err
	}

	a.printf("%s\n%s [%s]\n\n%s\n", p.Title, p.Author, p.Dynasty, p.Content)
	if p.Translation != "" {
		a.printf("\nTranslation:\n%s\n", p.Translation)
	}
	if p.Annotation != "" {
		a.printf("\nNotes:\n%s\n", p.Annotation)
	}
	if len(p.Tags) > 0 {
		a.printf("\nTags: %s\n", strings.Join(p.Tags, ", "))
	}
	if a.session.CanEditPoem(ctx, p.ID) {
		a.println("(you can edit this poem)")
	}
	return nil
}

func (a *App) authorListPage(ctx context.Context) error {
	authors, err := a.catalogue.Authors(ctx)
	if err != nil {
		return err
	}
	for i := range authors {
		au := &authors[i]
		a.printf("[%s] %s (%s)", au.ID, au.Name, au.Dynasty)
		if au.Birth != "" || au.Death != "" {
			a.printf(" %s-%s", au.Birth, au.Death)
		}
		a.println()
		if au.Description != "" {
			a.printf("    %s\n", au.Description)
		}
		if u := a.catalogue.AvatarURL(ctx, au); u != "" {
			a.printf("    avatar: %s\n", u)
		}
	}
	return nil
}

func (a *App) searchPage(ctx context.Context, t router.Target) error {
	params := catalogue.SearchParams{
		Keyword:  t.Query.Get("keyword"),
		Category: t.Query.Get("category"),
		Author:   t.Query.Get("author"),
		Dynasty:  t.Query.Get("dynasty"),
	}
	if params.IsZero() {
		a.println("Usage: search <keyword>")
		return nil
	}

	poems, err := a.catalogue.Search(ctx, params)
	if err != nil {
		return err
	}
	a.printf("%d result(s)\n", len(poems))
	a.printPoems(poems)
	return nil
}

func (a *App) adminPage(ctx context.Context) error {
	st, err := a.catalogue.Stats(ctx)
	if err != nil {
		return err
	}
	a.printf("Poems: %d\nAuthors: %d\nCategories: %d\n", st.Poems, st.Authors, st.Categories)
	return nil
}

func (a *App) printPoems(poems []catalogue.Poem) {
	if len(poems) == 0 {
		a.println("(no poems)")
		return
	}
	for _, p := range poems {
		a.printf("[%s] %s / %s (%s)\n", p.ID, p.Title, p.Author, p.Dynasty)
	}
}

// Routes prints the route table.
func (a *App) Routes(ctx context.Context) error {
	for _, r := range a.nav.Table().Routes() {
		switch {
		case r.Redirect != "":
			a.printf("%-12s -> %s\n", r.Path, r.Redirect)
		case r.Meta.RequiresAdmin:
			a.printf("%-12s %s (admin)\n", r.Path, r.Name)
		case r.Meta.RequiresAuth:
			a.printf("%-12s %s (login)\n", r.Path, r.Name)
		default:
			a.printf("%-12s %s\n", r.Path, r.Name)
		}
	}
	return nil
}
