package main

import (
	"net/http"
	"os"
	"time"

	"synthical/internal/platform/logger"
	"synthical/internal/router"
)

// @title Synthical API
// @version 1.0
// @description Extrae eventos de texto, URLs y archivos, y genera calendarios ICS.
// @BasePath /
func main() {
	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	log := logger.NewFromEnv()

	r := router.NewRouter(router.Options{Logger: log})

	// El polling de archivos de audio puede tardar ~45s; los timeouts del
	// server tienen que cubrir el peor caso del pipeline de extracción.
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
