package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/visamate/visamate/internal/identity"
	"github.com/visamate/visamate/internal/metrics"
	"github.com/visamate/visamate/internal/session"
)

var servePort int

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wizard HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		router := buildRouter(env.Orch, env.Identity, env.Verifier, cfg.Server.AllowedOrigins)
		return startServer(ctx, router, resolvePort(servePort, cfg.Server.Port))
	},
}

// resolvePort prefers the flag over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// buildRouter mounts every route. /wizard and /documents require a bearer
// token when verifier is non-nil.
func buildRouter(orch *session.Orchestrator, idp identity.Provider, verifier *identity.Verifier, allowedOrigins []string) http.Handler {
	a := &api{orch: orch, identity: idp}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(metrics.Middleware)

	r.Get("/health", a.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", a.login)
		r.Post("/refresh", a.refresh)
	})

	r.Group(func(r chi.Router) {
		r.Use(verifier.Middleware(writeError))

		r.Route("/wizard", func(r chi.Router) {
			r.Post("/start", a.start)
			r.Get("/tree/{session_id}", a.tree)
			r.Post("/questionnaire/{session_id}", a.submitAnswers)
			r.Get("/answers/{session_id}", a.listAnswers)
			r.Put("/step/{session_id}", a.setStep)
			r.Get("/document-checklist/{session_id}", a.checklist)
			r.Get("/prefilled-forms/{session_id}", a.prefilledForms)
			r.Get("/prefilled-forms/{session_id}/{form_type}.pdf", a.formPDF)
			r.Get("/eligibility/{session_id}", a.eligibility)
			r.Post("/generate-sop/{session_id}", a.generateSOP)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", a.listDocuments)
			r.Post("/presign", a.presign)
			r.Get("/{document_id}", a.document)
			r.Post("/{document_id}/complete", a.completeUpload)
			r.Get("/{document_id}/download", a.download)
		})
	})

	return r
}

// startServer serves handler on port until ctx is cancelled, then shuts
// down gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
	})
	return g.Wait()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
