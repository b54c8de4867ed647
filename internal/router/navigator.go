package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/shiciyaji/internal/logging"
)

const defaultMaxHops = 8

var ErrTooManyRedirects = errors.New("too many redirects")

// Navigation is the outcome of one Navigate call. Hops lists every location
// visited before Target, in order.
type Navigation struct {
	Target Target
	Hops   []string
}

// Redirected reports whether the navigation ended somewhere other than the
// requested location.
func (n Navigation) Redirected() bool {
	return len(n.Hops) > 0
}

// Navigator runs the before-each pipeline (title, description, Guard) for
// every navigation, follows route and guard redirects, and remembers where
// it ended up.
type Navigator struct {
	table   *Table
	session SessionView
	logger  logging.Logger
	maxHops int

	mu          sync.Mutex
	current     *Target
	title       string
	description string
}

func NewNavigator(table *Table, s SessionView, logger logging.Logger) *Navigator {
	return &Navigator{
		table:   table,
		session: s,
		logger:  logger.With("component", "router"),
		maxHops: defaultMaxHops,
		title:   DefaultTitle,
	}
}

// Navigate resolves fullPath and walks redirects until a target is allowed
// to display.
func (n *Navigator) Navigate(ctx context.Context, fullPath string) (Navigation, error) {
	var nav Navigation
	loc := fullPath

	for hop := 0; ; hop++ {
		if hop > n.maxHops {
			return nav, fmt.Errorf("%w: %v", ErrTooManyRedirects, append(nav.Hops, loc))
		}

		target, err := n.table.Resolve(loc)
		if err != nil {
			return nav, err
		}

		if target.Redirect != "" {
			nav.Hops = append(nav.Hops, loc)
			loc = target.Redirect
			continue
		}

		n.setHead(target.Meta)

		d := Guard(ctx, target, n.session)
		if d.Kind == Redirect {
			n.logger.Debug(ctx, "guard redirect", "from", target.FullPath, "to", d.Location())
			nav.Hops = append(nav.Hops, loc)
			loc = d.Location()
			continue
		}

		n.mu.Lock()
		n.current = &target
		n.mu.Unlock()

		nav.Target = target
		n.logger.Debug(ctx, "navigation complete", "path", target.Path)
		return nav, nil
	}
}

func (n *Navigator) setHead(m Meta) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.title = m.Title
	if n.title == "" {
		n.title = DefaultTitle
	}
	if m.Description != "" {
		n.description = m.Description
	}
}

// Current returns the last displayed target, if any.
func (n *Navigator) Current() (Target, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Target{}, false
	}
	return *n.current, true
}

func (n *Navigator) Title() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.title
}

func (n *Navigator) Description() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.description
}

func (n *Navigator) Table() *Table {
	return n.table
}
