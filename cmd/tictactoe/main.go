// Command tictactoe runs the retro tic-tac-toe engine behind one of its
// front ends:
//
//	serve     HTTP page, JSON API, SSE and WebSocket streams, /mcp endpoint
//	play      line-based terminal game
//	mcp       MCP stdio server
//	palettes  list the color palettes
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/jaminalder/retro-tic-tac-toe/internal/app"
	"github.com/jaminalder/retro-tic-tac-toe/internal/config"
	"github.com/jaminalder/retro-tic-tac-toe/internal/mcp"
	"github.com/jaminalder/retro-tic-tac-toe/internal/term"
	"github.com/jaminalder/retro-tic-tac-toe/internal/theme"
	"github.com/jaminalder/retro-tic-tac-toe/internal/web"
)

const version = "1.0.0"

func main() {
	if _, err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	def := config.Default()
	return &cli.Command{
		Name:    "tictactoe",
		Usage:   "retro tic-tac-toe",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Value: def.DataDir, Usage: "directory for saved settings and scores, empty keeps them in memory", Sources: cli.EnvVars(config.EnvDataDir)},
			&cli.BoolFlag{Name: "debug", Usage: "development logging", Sources: cli.EnvVars(config.EnvDebug)},
			&cli.DurationFlag{Name: "ai-delay", Value: def.Timing.AIDelay, Sources: cli.EnvVars(config.EnvAIDelay)},
			&cli.DurationFlag{Name: "speed-limit", Value: def.Timing.SpeedLimit, Sources: cli.EnvVars(config.EnvSpeedLimit)},
			&cli.DurationFlag{Name: "speed-tick", Value: def.Timing.SpeedTick, Sources: cli.EnvVars(config.EnvSpeedTick)},
			&cli.DurationFlag{Name: "save-debounce", Value: def.Timing.SaveDebounce, Sources: cli.EnvVars(config.EnvSaveDebounce)},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: def.Addr, Sources: cli.EnvVars(config.EnvAddr)},
				},
				Action: serve,
			},
			{Name: "play", Usage: "play in the terminal", Action: play},
			{Name: "mcp", Usage: "run an MCP stdio server", Action: serveMCP},
			{Name: "palettes", Usage: "list color palettes", Action: palettes},
		},
	}
}

func loadConfig(c *cli.Command) (config.Config, error) {
	cfg := config.Default()
	cfg.DataDir = c.String("data-dir")
	cfg.Debug = c.Bool("debug")
	cfg.Addr = c.String("addr")
	cfg.Timing = app.Timing{
		AIDelay:      c.Duration("ai-delay"),
		SpeedLimit:   c.Duration("speed-limit"),
		SpeedTick:    c.Duration("speed-tick"),
		SaveDebounce: c.Duration("save-debounce"),
	}
	return cfg, cfg.Validate()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// start builds the logger and an engine restored from the store.
func start(ctx context.Context, c *cli.Command) (*app.Engine, *zap.Logger, config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, cfg, err
	}
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("logger: %w", err)
	}
	st, err := cfg.Store()
	if err != nil {
		return nil, nil, cfg, err
	}
	e := app.New(ctx, st, app.WithLogger(log), app.WithTiming(cfg.Timing))
	return e, log, cfg, nil
}

func shutdown(e *app.Engine, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		log.Error("failed to save on shutdown", zap.Error(err))
	}
	_ = log.Sync()
}

func serve(ctx context.Context, c *cli.Command) error {
	e, log, cfg, err := start(ctx, c)
	if err != nil {
		return err
	}
	defer shutdown(e, log)

	r := chi.NewRouter()
	r.Handle("/mcp", mcp.New(e, version).Handler())
	r.Mount("/", web.NewServer(e, log))
	srv := &http.Server{Addr: cfg.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Streams end once the engine closes its subscribers.
	_ = e.Close(sctx)
	return srv.Shutdown(sctx)
}

func play(ctx context.Context, c *cli.Command) error {
	e, log, _, err := start(ctx, c)
	if err != nil {
		return err
	}
	defer shutdown(e, log)
	profile := termenv.NewOutput(os.Stdout).EnvColorProfile()
	err = term.NewSession(e, os.Stdin, os.Stdout, profile).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serveMCP(ctx context.Context, c *cli.Command) error {
	e, log, _, err := start(ctx, c)
	if err != nil {
		return err
	}
	defer shutdown(e, log)
	return mcp.New(e, version).ServeStdio()
}

func palettes(ctx context.Context, c *cli.Command) error {
	for _, p := range theme.All() {
		fmt.Printf("%-12s %-16s %s on %s\n", p.ID, p.Name, p.Foreground, p.Background)
	}
	return nil
}
