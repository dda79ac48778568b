package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/stockroom/internal/api"
	"github.com/erazemk/stockroom/internal/auth"
	"github.com/erazemk/stockroom/internal/imaging"
	"github.com/erazemk/stockroom/internal/store"
	"github.com/erazemk/stockroom/internal/tracker"
	"github.com/erazemk/stockroom/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Addr
			}
			return serve(cmd.Context(), a, addr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default $STOCKROOM_ADDR or :8080)")
	return cmd
}

func serve(ctx context.Context, a *app, addr string) error {
	st, err := store.Open(a.cfg.Store)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", a.cfg.Store.Backend, err)
	}
	defer st.Close()
	slog.Info("store ready", "backend", a.cfg.Store.Backend)

	gate, err := auth.NewGate(a.cfg.Gate)
	if err != nil {
		return err
	}

	secret, revocations, err := sessionBackend(ctx, st, a.cfg.JWTSecret)
	if err != nil {
		return err
	}

	var logo *imaging.Logo
	if a.cfg.LogoPath != "" {
		logo, err = imaging.Load(a.cfg.LogoPath)
		if err != nil {
			slog.Warn("serving without a logo", "error", err)
		}
	}

	svc := tracker.New(st, a.cfg.Schema)

	apiRouter, err := api.NewRouter(api.Config{
		Tracker:      svc,
		Gate:         gate,
		Revocations:  revocations,
		JWTSecret:    secret,
		DefaultActor: a.cfg.Actor,
		LoginRate:    a.cfg.LoginRate,
	})
	if err != nil {
		return fmt.Errorf("setting up API router: %w", err)
	}

	loginLimit, err := api.RateLimit(a.cfg.LoginRate)
	if err != nil {
		return err
	}
	webRouter, err := web.NewRouter(web.Config{
		Tracker:      svc,
		Gate:         gate,
		Revocations:  revocations,
		JWTSecret:    secret,
		DefaultActor: a.cfg.Actor,
		ShopName:     a.cfg.ShopName,
		Logo:         logo,
		LoginLimit:   loginLimit,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              addr,
		Handler:           api.LoggingMiddleware(gzhttp.GzipHandler(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "addr", addr, "shop", a.cfg.ShopName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
			return err
		}
		return nil
	})

	err = g.Wait()
	slog.Info("server stopped, closing store")
	return err
}

// sessionBackend picks the token secret and revocation list. The SQLite
// backend keeps both across restarts; other backends keep revocations in
// memory and, without a configured secret, sign with a per-process one.
func sessionBackend(ctx context.Context, st store.Store, configured string) (string, auth.Revocations, error) {
	if db, ok := st.(*store.SQLite); ok {
		secret := configured
		if secret == "" {
			var err error
			secret, err = db.JWTSecret(ctx)
			if err != nil {
				return "", nil, fmt.Errorf("getting JWT secret: %w", err)
			}
		}
		return secret, db, nil
	}

	if configured != "" {
		return configured, auth.NewMemoryRevocations(), nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generating JWT secret: %w", err)
	}
	slog.Warn("STOCKROOM_JWT_SECRET is not set, sessions end when the server restarts")
	return hex.EncodeToString(buf), auth.NewMemoryRevocations(), nil
}
