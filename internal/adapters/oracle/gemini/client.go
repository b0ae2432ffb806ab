package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"synthical/internal/platform/logger"
	"synthical/internal/ports/oracle"
)

// Adapter del puerto oracle sobre la API de Gemini. Para texto puro es un
// único generateContent; para media es el protocolo de tres fases: upload,
// polling del estado de procesamiento, y generación referenciando el archivo,
// con borrado best-effort al final.

var (
	ErrNotConfigured     = errors.New("gemini client not configured")
	ErrUploadFailed      = errors.New("gemini upload failed")
	ErrProcessingFailed  = errors.New("gemini file processing failed")
	ErrProcessingTimeout = errors.New("gemini file processing timed out")
	ErrGenerateFailed    = errors.New("gemini generation failed")
)

const (
	DefaultTextModel  = "gemini-2.5-flash-lite-preview-06-17"
	DefaultMediaModel = "gemini-2.5-pro"

	defaultPollInterval = time.Second
)

// Config del cliente Gemini. APIKey normalmente viene de GEMINI_API_KEY.
type Config struct {
	APIKey     string
	TextModel  string
	MediaModel string

	// Espaciado del polling de procesamiento. Si es 0 se usa 1s; los tests
	// lo bajan para no dormir de verdad.
	PollInterval time.Duration
}

type Client struct {
	client       *genai.Client
	textModel    string
	mediaModel   string
	pollInterval time.Duration
	log          logger.Logger
}

func New(ctx context.Context, cfg Config, log logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	textModel := cfg.TextModel
	if textModel == "" {
		textModel = DefaultTextModel
	}
	mediaModel := cfg.MediaModel
	if mediaModel == "" {
		mediaModel = DefaultMediaModel
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Client{
		client:       gc,
		textModel:    textModel,
		mediaModel:   mediaModel,
		pollInterval: interval,
		log:          log,
	}, nil
}

// GenerateText manda el contexto compuesto y devuelve el texto crudo.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}

	text := resp.Text()
	c.log.Debug("gemini text response", map[string]any{
		"model":  c.textModel,
		"length": len(text),
	})
	return text, nil
}

// GenerateWithMedia ejecuta el protocolo completo de media. Cada fase tiene
// su señal de fallo propia para los logs; el caller las colapsa en un único
// "extraction failed" hacia el usuario.
func (c *Client) GenerateWithMedia(ctx context.Context, media oracle.Media, prompt string) (string, error) {
	kind, ok := oracle.KindOf(media.MIMEType)
	if !ok {
		return "", fmt.Errorf("%w: unsupported mime type %q", ErrUploadFailed, media.MIMEType)
	}
	baseMIME := oracle.BaseMIME(media.MIMEType)

	name := media.Name
	if strings.TrimSpace(name) == "" {
		name = "uploaded-file"
	}

	// Fase 1: iniciar sesión de upload y transferir bytes.
	file, err := c.client.Files.Upload(ctx, bytes.NewReader(media.Data), &genai.UploadFileConfig{
		MIMEType:    baseMIME,
		DisplayName: name,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	c.log.Info("media uploaded to gemini", map[string]any{
		"file": file.Name,
		"mime": baseMIME,
		"kind": string(kind),
		"size": len(media.Data),
	})

	// Borrado best-effort: el fallo se loguea, nunca se propaga.
	defer func() {
		if _, derr := c.client.Files.Delete(context.WithoutCancel(ctx), file.Name, nil); derr != nil {
			c.log.Warn("media cleanup failed", map[string]any{
				"file":  file.Name,
				"error": derr.Error(),
			})
		}
	}()

	// Fase 2: esperar a que el archivo quede ACTIVE.
	if err := c.waitForActive(ctx, file.Name, pollAttemptsFor(kind)); err != nil {
		return "", err
	}

	// Fase 3: generar referenciando el archivo procesado.
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromURI(file.URI, baseMIME),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.mediaModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerateFailed, err)
	}

	text := resp.Text()
	c.log.Debug("gemini media response", map[string]any{
		"model":  c.mediaModel,
		"length": len(text),
	})
	return text, nil
}

// waitForActive es el loop de polling: intervalo fijo, sin backoff, techo
// duro de intentos. Las transiciones las decide NextPollState (poll.go).
func (c *Client) waitForActive(ctx context.Context, fileName string, maxAttempts int) error {
	for attempt := 0; ; attempt++ {
		state := genai.FileStateUnspecified
		f, err := c.client.Files.Get(ctx, fileName, nil)
		if err != nil {
			// Un status check fallido cuenta como intento y se reintenta.
			c.log.Warn("file status check failed", map[string]any{
				"file":    fileName,
				"attempt": attempt,
				"error":   err.Error(),
			})
		} else {
			state = f.State
		}

		switch NextPollState(attempt, maxAttempts, state) {
		case PollActive:
			return nil
		case PollFailed:
			return fmt.Errorf("%w: file %s", ErrProcessingFailed, fileName)
		case PollTimedOut:
			return fmt.Errorf("%w: file %s not ready after %d attempts", ErrProcessingTimeout, fileName, maxAttempts)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrProcessingTimeout, ctx.Err())
		case <-time.After(c.pollInterval):
		}
	}
}
