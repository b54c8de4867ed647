package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/shiciyaji/internal/app"
	"github.com/dmitrijs2005/shiciyaji/internal/auth/local"
	"github.com/dmitrijs2005/shiciyaji/internal/buildinfo"
	"github.com/dmitrijs2005/shiciyaji/internal/config"
	"github.com/dmitrijs2005/shiciyaji/internal/router"
)

type application interface {
	RunShell(ctx context.Context, in io.Reader, out io.Writer) error
	RunServer(ctx context.Context) error
	SeedTestUsers(ctx context.Context) (bool, error)
	Close() error
}

// Seams for tests.
var (
	loadConfig = config.Load
	newApp     = func(ctx context.Context, c *config.Config, logOut io.Writer) (application, error) {
		return app.New(ctx, c, logOut)
	}
)

const flagsHelp = `Flags (after the command name) are parsed by the configuration loader:
  -c, -config path   JSON config file
  -env-file path     dotenv file (default .env when present)
  -mode local|hosted
  -db path           local SQLite store
  -supabase-url url  -supabase-key key
  -dsn dsn           catalogue Postgres DSN
  -s3-bucket, -s3-region, -s3-endpoint
  -addr host:port    web listen address
  -log zap|slog      -debug
  -t seconds         HTTP timeout`

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:                "yaji",
		Short:              "诗词雅集 poetry catalogue client",
		Long:               "Browse, search and add classical Chinese poems from a terminal or a local web front end.\n\n" + flagsHelp,
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, args, in)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.AddCommand(
		&cobra.Command{
			Use:                "shell",
			Short:              "Start the interactive shell (default)",
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShell(cmd, args, in)
			},
		},
		&cobra.Command{
			Use:                "serve",
			Short:              "Serve the web front end",
			DisableFlagParsing: true,
			RunE:               runServe,
		},
		&cobra.Command{
			Use:                "seed-test-users",
			Short:              "Create the local test accounts if none exist",
			DisableFlagParsing: true,
			RunE:               runSeed,
		},
		&cobra.Command{
			Use:   "routes",
			Short: "Print the route table",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				printRoutes(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)
	return root
}

// withApp loads the configuration from args, builds the application and
// runs fn with a context cancelled on termination signals.
func withApp(cmd *cobra.Command, args []string, fn func(ctx context.Context, a application) error) error {
	c, err := loadConfig(args)
	if err != nil {
		return err
	}

	ctx, cancel := app.WithSignals(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, c, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func runShell(cmd *cobra.Command, args []string, in io.Reader) error {
	buildinfo.PrintBuildData(cmd.OutOrStdout())
	return withApp(cmd, args, func(ctx context.Context, a application) error {
		return a.RunShell(ctx, in, cmd.OutOrStdout())
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	return withApp(cmd, args, func(ctx context.Context, a application) error {
		return a.RunServer(ctx)
	})
}

func runSeed(cmd *cobra.Command, args []string) error {
	return withApp(cmd, args, func(ctx context.Context, a application) error {
		seeded, err := a.SeedTestUsers(ctx)
		if err != nil {
			return err
		}
		if seeded {
			fmt.Fprintf(cmd.OutOrStdout(), "Test users created (password %q).\n", local.TestUserPassword)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Accounts already exist, nothing seeded.")
		}
		return nil
	})
}

func printRoutes(w io.Writer) {
	for _, r := range router.DefaultRoutes() {
		access := "public"
		switch {
		case r.Redirect != "":
			access = "-> " + r.Redirect
		case r.Meta.RequiresAdmin:
			access = "admin"
		case r.Meta.RequiresAuth:
			access = "login"
		}
		fmt.Fprintf(w, "%-12s %-12s %-8s %s\n", r.Path, r.Name, access, r.Meta.Title)
	}
}
