package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"smpctl/logger"
)

// corsMiddleware 添加 CORS 头
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter wires every route of the remote control API.
func NewRouter(h *APIHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/token", h.TokenHandler).Methods(http.MethodPost, http.MethodOptions)

	router.HandleFunc("/api/commands", h.AuthMiddleware(h.CommandHandler)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/drivers", h.AuthMiddleware(h.DriversHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/status", h.AuthMiddleware(h.StatusHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/journal", h.AuthMiddleware(h.JournalHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/probe", h.AuthMiddleware(h.ProbeHandler)).Methods(http.MethodPost, http.MethodOptions)

	router.HandleFunc("/ws/events", h.EventsHandler).Methods(http.MethodGet)
	return router
}

// Start serves handler on addr until ctx ends or SIGINT/SIGTERM arrives,
// then shuts down gracefully.
func Start(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-stop:
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
