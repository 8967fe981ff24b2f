package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/scheduler/internal/config"
	"github.com/klokku/scheduler/internal/utils"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const defaultConfigPath = "./config/scheduler.yaml"

// Application is the scheduler command line: it loads configuration, builds
// the dependencies for one invocation and dispatches to a command.
type Application struct {
	cli   *cli.App
	out   io.Writer
	clock utils.Clock
	deps  *Dependencies
}

func NewApplication(out io.Writer, clock utils.Clock) *Application {
	a := &Application{out: out, clock: clock}
	a.cli = &cli.App{
		Name:      "scheduler",
		Usage:     "Event Scheduler and Analyzer CLI",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   defaultConfigPath,
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"SCHEDULER_CONFIG"},
			},
		},
		Before:   a.setup,
		After:    a.teardown,
		Commands: a.commands(),
	}
	return a
}

// Run executes the command line in args (args[0] is the program name).
func (a *Application) Run(ctx context.Context, args []string) error {
	return a.cli.RunContext(ctx, args)
}

func (a *Application) setup(c *cli.Context) error {
	if c.NArg() == 0 || wantsHelp(c.Args().Slice()) {
		return nil
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if cfg.Log.Level != "" {
		level, err := log.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	deps, err := BuildDependencies(c.Context, cfg, a.clock)
	if err != nil {
		return err
	}
	a.deps = deps
	return nil
}

// wantsHelp reports whether args only ask for usage, which needs no backend.
func wantsHelp(args []string) bool {
	if len(args) > 0 && (args[0] == "help" || args[0] == "h") {
		return true
	}
	return slices.ContainsFunc(args, func(arg string) bool {
		return arg == "--help" || arg == "-h"
	})
}

func (a *Application) teardown(_ *cli.Context) error {
	if a.deps != nil {
		a.deps.Close()
		a.deps = nil
	}
	return nil
}

// NewRouter builds the HTTP API over deps.
func NewRouter(deps *Dependencies) *mux.Router {
	r := mux.NewRouter()
	SetupMiddleware(r)
	RegisterRoutes(r, deps)
	return r
}

// Serve runs the HTTP API until ctx is cancelled.
func Serve(ctx context.Context, deps *Dependencies) error {
	srv := &http.Server{
		Handler:      NewRouter(deps),
		Addr:         deps.Config.Server.Addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
