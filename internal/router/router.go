package router

import (
	"context"
	"net/http"
	"os"
	"time"

	"synthical/internal/adapters/oracle/gemini"
	"synthical/internal/adapters/webpage/httpfetch"
	"synthical/internal/domain/calendar"
	"synthical/internal/domain/extract"
	"synthical/internal/platform/logger"
	"synthical/internal/ports/oracle"
	"synthical/internal/ports/webpage"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "synthical/docs" // registro swagger generado
)

const defaultFetchTimeout = 30 * time.Second

type Options struct {
	Oracle  oracle.Client   // puede ser nil (se intenta por env)
	Fetcher webpage.Fetcher // puede ser nil (usa el fetcher HTTP default)
	Logger  logger.Logger   // puede ser nil (usa NewFromEnv)
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Si no te pasan oráculo explícito, intenta por env (para dev/handoff)
	oc := opts.Oracle
	if oc == nil {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			client, err := gemini.New(context.Background(), gemini.Config{APIKey: key}, log)
			if err == nil {
				oc = client
			} else {
				log.Error("gemini client init failed", map[string]any{"error": err.Error()})
			}
		}
	}
	if oc == nil {
		log.Warn("no oracle configured; extraction endpoints will fail", nil)
		oc = unconfiguredOracle{}
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = httpfetch.New(defaultFetchTimeout)
	}

	// Services por módulo
	extractSvc := extract.NewService(oc, fetcher, log)
	calendarSvc := calendar.NewSerializer(log)

	// Rutas por módulo
	r.Route("/api", func(api chi.Router) {
		extract.RegisterRoutes(api, extractSvc)
		calendar.RegisterRoutes(api, calendarSvc)
	})

	return r
}

// unconfiguredOracle permite bootear el server sin GEMINI_API_KEY; cada
// llamada de extracción falla con un error claro en vez de un nil panic.
type unconfiguredOracle struct{}

func (unconfiguredOracle) GenerateText(context.Context, string) (string, error) {
	return "", gemini.ErrNotConfigured
}

func (unconfiguredOracle) GenerateWithMedia(context.Context, oracle.Media, string) (string, error) {
	return "", gemini.ErrNotConfigured
}
