package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/synthgen/internal/api"
	"github.com/phrazzld/synthgen/internal/auth"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/platform/postgres"
)

// shutdownTimeout bounds graceful shutdown of the inspection API.
const shutdownTimeout = 10 * time.Second

// idCommand prints the identifier of a payload given as arguments or,
// when none are given, read from stdin.
func idCommand(env *cliEnv, args []string) error {
	fs := env.newFlagSet("id")
	auxiliary := fs.String("auxiliary", "", "auxiliary text that takes part in identity")
	fs.Usage = func() {
		fmt.Fprintln(env.stderr, "Usage: synthgen id [--auxiliary text] [payload...]")
		fs.PrintDefaults()
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	payload := strings.Join(fs.Args(), " ")
	if fs.NArg() == 0 {
		data, err := io.ReadAll(env.stdin)
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
		payload = string(data)
	}

	item, err := domain.NewWorkItem(payload, *auxiliary)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, item.ID.String())
	return nil
}

// serveCommand runs the inspection API until ctx is cancelled.
func serveCommand(ctx context.Context, env *cliEnv, args []string) error {
	fs := env.newFlagSet("serve")
	addr := fs.String("addr", "", "listen address (default: api.addr from config)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg, log, err := env.loadConfig()
	if err != nil {
		return err
	}
	if *addr == "" {
		*addr = cfg.API.Addr
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	deps := api.RouterDeps{Cache: app.cache, Logger: log}
	if cfg.API.JWTSecret != "" {
		tokens, err := auth.NewJWTService(cfg.API.JWTSecret, 0)
		if err != nil {
			return fmt.Errorf("failed to initialize token service: %w", err)
		}
		deps.Tokens = tokens
		log.Info("bearer authentication enabled")
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("server shutdown completed")
	return nil
}

// migrateCommand runs a goose command against the postgres cache schema.
func migrateCommand(ctx context.Context, env *cliEnv, args []string) error {
	fs := env.newFlagSet("migrate")
	fs.Usage = func() {
		fmt.Fprintln(env.stderr, "Usage: synthgen migrate <up|down|status|version>")
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	cfg, log, err := env.loadConfig()
	if err != nil {
		return err
	}
	if cfg.Cache.Backend != "postgres" {
		return fmt.Errorf("migrations apply to the postgres backend only, configured backend is %q", cfg.Cache.Backend)
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()

	return postgres.Migrate(ctx, app.db, log, fs.Arg(0))
}

// tokenCommand issues a bearer token for the inspection API.
func tokenCommand(ctx context.Context, env *cliEnv, args []string) error {
	fs := env.newFlagSet("token")
	subject := fs.String("subject", "", "who the token is issued to")
	ttl := fs.Duration("ttl", auth.DefaultTokenLifetime, "token lifetime")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *subject == "" {
		fmt.Fprintln(env.stderr, "Usage: synthgen token --subject name [--ttl 24h]")
		return errUsage
	}

	cfg, _, err := env.loadConfig()
	if err != nil {
		return err
	}
	if cfg.API.JWTSecret == "" {
		return errors.New("api.jwt_secret is not configured")
	}

	tokens, err := auth.NewJWTService(cfg.API.JWTSecret, *ttl)
	if err != nil {
		return err
	}
	token, err := tokens.IssueToken(ctx, *subject)
	if err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, token)
	return nil
}
