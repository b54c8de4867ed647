package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/catalogue"
	"github.com/dmitrijs2005/shiciyaji/internal/router"
)

// Indirections to the input helpers, swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getRequiredText = GetRequiredText
	getPassword     = GetPassword
	getMultiline    = GetMultiline
)

// loginForm asks for credentials and, once signed in, continues to the
// page that sent the user here.
func (a *App) loginForm(ctx context.Context, t router.Target) error {
	if a.session.IsAuthenticated() {
		a.printf("Already signed in as %s.\n", a.session.DisplayName())
		return nil
	}

	email, err := getRequiredText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}

	user, err := a.session.Login(ctx, email, password)
	if err != nil {
		a.println(auth.Message(err))
		return nil
	}
	a.printf("Welcome, %s!\n", user.Name())
	return a.Go(ctx, router.AfterLogin(t))
}

func (a *App) registerForm(ctx context.Context) error {
	email, err := getRequiredText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Display name (optional)", a.out)
	if err != nil {
		return err
	}

	if err := a.session.Register(ctx, email, password, name, auth.RoleUser); err != nil {
		a.println(auth.Message(err))
		return nil
	}

	if a.session.IsAuthenticated() {
		a.println("Success!")
		return a.Go(ctx, router.DashboardPath)
	}
	a.println("Account created. Type 'login' to sign in.")
	return nil
}

func (a *App) addPoemForm(ctx context.Context) error {
	if a.catalogue == nil {
		return errNoCatalogue
	}

	var (
		in  catalogue.NewPoem
		err error
	)
	if in.Title, err = getRequiredText(a.reader, "Title", a.out); err != nil {
		return err
	}
	if in.Author, err = getRequiredText(a.reader, "Author", a.out); err != nil {
		return err
	}
	if in.Dynasty, err = getSimpleText(a.reader, "Dynasty", a.out); err != nil {
		return err
	}
	if in.Category, err = getSimpleText(a.reader, "Category", a.out); err != nil {
		return err
	}
	if in.Content, err = getMultiline(a.reader, "Content", a.out); err != nil {
		return err
	}
	if in.Translation, err = getMultiline(a.reader, "Translation (optional)", a.out); err != nil {
		return err
	}
	tags, err := getSimpleText(a.reader, "Tags (comma separated)", a.out)
	if err != nil {
		return err
	}
	in.Tags = splitTags(tags)

	p, err := a.catalogue.AddPoem(ctx, a.session.User(), in)
	switch {
	case errors.Is(err, catalogue.ErrInvalidPoem):
		a.println(err)
		return nil
	case err != nil:
		return err
	}
	a.printf("Poem %s saved.\n", p.ID)
	return nil
}

// Logout signs out; a failed upstream revocation is reported but the
// terminal session ends either way.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		a.logger.Warn(ctx, "logout", "error", err)
	}
	a.println("Signed out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u := a.session.CheckAuth(ctx)
	if u == nil {
		a.println("Not signed in.")
		return nil
	}
	a.printf("%s <%s> role=%s id=%s\n", u.Name(), u.Email, u.Role, u.ID)
	return nil
}
