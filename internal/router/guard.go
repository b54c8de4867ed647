package router

import (
	"context"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/shiciyaji/internal/auth"
	"github.com/dmitrijs2005/shiciyaji/internal/session"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

type DecisionKind int

const (
	Proceed DecisionKind = iota
	Redirect
)

type Decision struct {
	Kind  DecisionKind
	Path  string
	Query url.Values
}

func ProceedDecision() Decision {
	return Decision{Kind: Proceed}
}

func RedirectTo(path string, query url.Values) Decision {
	return Decision{Kind: Redirect, Path: path, Query: query}
}

// Location renders a redirect as a path with an encoded query.
func (d Decision) Location() string {
	if len(d.Query) == 0 {
		return d.Path
	}
	return d.Path + "?" + d.Query.Encode()
}

// SessionView is what the guard needs from the session store. The guard
// reads it and may trigger or await a check, but never changes it
// otherwise.
type SessionView interface {
	Snapshot() session.Snapshot
	WaitIdle(ctx context.Context) error
	CheckAuth(ctx context.Context) *auth.Identity
}

// Guard decides whether navigation to target may proceed.
//
// Unguarded targets always proceed. Otherwise, when no user is resolved
// yet, the guard waits for the check in flight (or starts one if none was
// ever started) and then evaluates once: any state other than
// Authenticated sends the user to the login page carrying the original
// destination, and a non-admin on an admin route goes home. Authentication
// is checked before the admin requirement.
func Guard(ctx context.Context, target Target, s SessionView) Decision {
	if !target.Meta.Guarded() {
		return ProceedDecision()
	}

	snap := s.Snapshot()
	if snap.User == nil && !snap.Resolved() {
		if snap.State == session.Unknown {
			s.CheckAuth(ctx)
		} else {
			_ = s.WaitIdle(ctx)
		}
		snap = s.Snapshot()
	}

	if !snap.IsAuthenticated() {
		return RedirectTo(LoginPath, url.Values{"redirect": {target.FullPath}})
	}
	if target.Meta.RequiresAdmin && !snap.IsAdmin() {
		return RedirectTo(HomePath, nil)
	}
	return ProceedDecision()
}

// DashboardPath is where a successful login lands when no redirect was
// requested.
const DashboardPath = "/home"

// AfterLogin returns the location to open once the login form on login
// succeeds: its redirect query when that is a local path, DashboardPath
// otherwise.
func AfterLogin(login Target) string {
	next := login.Query.Get("redirect")
	// Browsers read `/\host` as "//host".
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) ||
		strings.HasPrefix(next, LoginPath) {
		return DashboardPath
	}
	return next
}
