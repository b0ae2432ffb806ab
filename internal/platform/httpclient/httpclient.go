package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second

	// Máximo de bytes que leemos de un body (páginas web pueden ser enormes).
	DefaultMaxBody = 5 << 20 // 5MB
)

// Client envuelve *http.Client con helpers comunes para adapters.
type Client struct {
	HTTP    *http.Client
	MaxBody int64 // límite de lectura del body; si <=0 usa DefaultMaxBody
}

// New crea un Client con timeout razonable.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewWithTransport permite inyectar un Transport (p.ej. para tests).
func NewWithTransport(timeout time.Duration, tr http.RoundTripper) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tr == nil {
		tr = http.DefaultTransport
	}
	return &Client{
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
	}
}

// HTTPError representa una respuesta no-2xx.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
}

// GetText hace un GET y devuelve el body como texto (limitado a MaxBody).
// - rawURL: debe ser URL absoluta http(s).
// - headers: headers extra (opcional).
// Retorna *HTTPError si el status no es 2xx.
func (c *Client) GetText(ctx context.Context, rawURL string, headers map[string]string) (string, error) {
	if c == nil || c.HTTP == nil {
		return "", errors.New("httpclient: nil client")
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("httpclient: empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("httpclient: invalid url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("httpclient: new request: %w", err)
	}

	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("httpclient: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := readAtMost(resp.Body, c.MaxBody)
	if err != nil {
		return "", fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// En errores solo conservamos un excerpt corto para logs.
		excerpt := strings.TrimSpace(string(raw))
		if len(excerpt) > 512 {
			excerpt = excerpt[:512]
		}
		return "", &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       excerpt,
		}
	}

	return string(raw), nil
}

func readAtMost(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxBody
	}
	lr := io.LimitReader(r, max)
	return io.ReadAll(lr)
}
