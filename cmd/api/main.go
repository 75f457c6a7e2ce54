package main

import (
	"net/http"
	"os"
	"time"

	"pet-med-tracker/internal/adapters/auth/remote"
	"pet-med-tracker/internal/platform/logger"
	"pet-med-tracker/internal/ports/auth"
	"pet-med-tracker/internal/router"
)

// @title Pet Med Tracker API
// @version 1.0
// @description API de horarios de medicación y registro idempotente de dosis para mascotas.
// @BasePath /
func main() {
	log := logger.NewFromEnv()

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Con AUTH_BASE_URL presente se verifica contra el servicio de
	// identidad; sin él la API corre en modo dev (headers X-Debug-*).
	var verifier auth.AuthVerifier
	if base := os.Getenv("AUTH_BASE_URL"); base != "" {
		client := remote.NewClient(remote.Config{
			BaseURL: base,
			APIKey:  os.Getenv("AUTH_API_KEY"),
		})
		verifier = remote.NewVerifier(client)
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr, "dev_mode": verifier == nil})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", logger.Err(err))
		os.Exit(1)
	}
}
