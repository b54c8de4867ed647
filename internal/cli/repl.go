package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// execIface is the command surface the REPL drives. *App satisfies it;
// tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Go(ctx context.Context, fullPath string) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Routes(ctx context.Context) error
}

const (
	helpGuest  = "Available commands: home, poems, poem <id>, authors, search <keyword>, login, register, go <path>, routes, whoami, exit"
	helpMember = "Available commands: home, poems, poem <id>, authors, search <keyword>, add, admin, go <path>, routes, whoami, logout, exit"
)

var usage = map[string]string{
	"poem": "Usage: poem <id>",
	"go":   "Usage: go <path>",
}

// commandPath maps a shortcut command to the location it opens. ok is
// false for commands that are not navigations.
func commandPath(cmd string, args []string) (string, bool) {
	switch cmd {
	case "home":
		return "/home", true
	case "poems", "l", "list":
		return "/poems", true
	case "authors":
		return "/authors", true
	case "admin":
		return "/admin", true
	case "add", "add-poem":
		return "/add-poem", true
	case "login":
		return "/login", true
	case "register":
		return "/register", true
	case "poem":
		if len(args) == 0 {
			return "", false
		}
		return "/poem/" + url.PathEscape(args[0]), true
	case "search":
		if len(args) == 0 {
			return "/search", true
		}
		return "/search?" + url.Values{"keyword": {strings.Join(args, " ")}}.Encode(), true
	case "go":
		if len(args) == 0 {
			return "", false
		}
		return args[0], true
	}
	return "", false
}

// runREPL reads one command per line from reader and dispatches it. Command
// errors are reported and the loop goes on; it ends on "exit", "quit",
// end of input or a cancelled ctx.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "yaji (%s)> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, helpMember)
			} else {
				fmt.Fprintln(out, helpGuest)
			}
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "routes":
			cmdErr = a.Routes(ctx)
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			p, ok := commandPath(cmd, args)
			if !ok {
				if u, ok := usage[cmd]; ok {
					fmt.Fprintln(out, u)
				} else {
					fmt.Fprintln(out, "Unknown command:", cmd)
				}
				continue
			}
			cmdErr = a.Go(ctx, p)
		}
		if cmdErr != nil {
			fmt.Fprintln(out, "Error:", cmdErr)
		}
	}
}
