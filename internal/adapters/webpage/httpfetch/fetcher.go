package httpfetch

import (
	"context"
	"net/http"
	"time"

	"synthical/internal/platform/httpclient"
)

// Fetcher implementa ports/webpage sobre el httpclient de la plataforma.
// Manda headers de navegador: bastantes sitios de eventos responden 403 a
// user agents default.
type Fetcher struct {
	client *httpclient.Client
}

var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Referer":                   "https://www.google.com/",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

func New(timeout time.Duration) *Fetcher {
	return &Fetcher{client: httpclient.New(timeout)}
}

// NewWithTransport permite inyectar un Transport (tests).
func NewWithTransport(timeout time.Duration, tr http.RoundTripper) *Fetcher {
	return &Fetcher{client: httpclient.NewWithTransport(timeout, tr)}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.client.GetText(ctx, url, browserHeaders)
}
