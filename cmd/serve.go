package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"scribeai/internal/auth"
	"scribeai/internal/config"
	"scribeai/internal/db"
	"scribeai/internal/httpapi"
	"scribeai/internal/logger"
	"scribeai/internal/ocr"
	"scribeai/internal/pipeline"
	"scribeai/internal/storage"
	"scribeai/internal/summarizer"
	"scribeai/internal/web"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ScribeAI web application",
	Long: `Start the HTTP server with the upload and processing API, credential
authentication and the dashboard pages.

Required environment variables:
  AUTH_SECRET   - Session signing secret, at least 32 characters
  DATABASE_URL  - postgres:// URL or sqlite DSN (default file:scribeai.db)

Provider credentials (OPENROUTER_API_KEY, GEMINI_API_KEY, Google settings) are
read per request, so the server starts without them.`,
	Example: `  scribeai serve
  scribeai serve --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: SCRIBEAI_ADDR or :3000)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireAuthSecret(); err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	store, err := storage.New(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenIssuer(cfg.AuthSecret, cfg.SessionMaxAge)
	if err != nil {
		return err
	}
	authService := auth.NewService(db.NewRepository(database), tokens)

	processor := pipeline.NewProcessor(store, ocr.EnvFactory{}, summarizer.EnvFactory)
	handler := httpapi.NewHandler(store, processor, authService)
	pages := web.NewPages(func(r *http.Request) *auth.Session {
		return authService.Resolve(r.Context(), auth.TokenFromRequest(r))
	}, store.MaxSize())

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(handler, pages),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sweepUploads(ctx, store, cfg.UploadTTL, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("upload_dir", store.Dir()).
			Str("database", string(database.Dialect())).
			Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// sweepUploads removes abandoned uploads older than ttl until ctx is done.
func sweepUploads(ctx context.Context, store *storage.Store, ttl time.Duration, log zerolog.Logger) {
	if ttl <= 0 {
		return
	}

	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.Sweep(ttl)
			if err != nil {
				log.Warn().Err(err).Msg("Upload sweep incomplete")
			}
			if removed > 0 {
				log.Info().Int("removed", removed).Msg("Removed expired uploads")
			}
		}
	}
}
