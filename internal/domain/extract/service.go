package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"synthical/internal/domain/events"
	"synthical/internal/domain/pages"
	"synthical/internal/platform/logger"
	"synthical/internal/ports/oracle"
	"synthical/internal/ports/webpage"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// Service orquesta el pipeline de extracción: señales de página → contexto
// compuesto → oráculo → canonicalización. Es stateless por request; la única
// cosa compartida entre requests es el handle (read-only) del oráculo.
type Service struct {
	oracle  oracle.Client
	fetcher webpage.Fetcher
	log     logger.Logger
	now     func() time.Time
}

func NewService(oc oracle.Client, fetcher webpage.Fetcher, log logger.Logger) *Service {
	return &Service{
		oracle:  oc,
		fetcher: fetcher,
		log:     log,
		now:     time.Now,
	}
}

// ProcessText extrae eventos de texto libre.
func (s *Service) ProcessText(ctx context.Context, text, userTZ string) ([]events.Event, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}
	now := s.now()

	expectMultiple := ExpectsMultipleEvents(text)
	prompt := Compose(ComposeInput{
		Content:        text,
		TimeZone:       userTZ,
		Now:            now,
		ExpectMultiple: expectMultiple,
	})

	raw, err := s.oracle.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("oracle call failed: %w", err)
	}

	out := events.Canonicalize(raw, now, "")
	s.log.Info("text extraction completed", map[string]any{
		"events":          len(out),
		"expect_multiple": expectMultiple,
	})
	return out, nil
}

// ProcessURL extrae eventos de una página web. Los fallos de fetch degradan
// a un evento placeholder con descripción explicativa; solo los fallos del
// oráculo suben como error.
func (s *Service) ProcessURL(ctx context.Context, rawURL, userTZ string) ([]events.Event, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrInvalidInput
	}
	now := s.now()

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return []events.Event{placeholderEvent(events.DefaultTitle, "Invalid URL format: "+rawURL, rawURL, now)}, nil
	}
	host := u.Hostname()

	// Sitios que bloquean scrapers: corto-circuito a placeholder.
	if pages.IsBlockedDomain(host) {
		s.log.Warn("url from a domain known to block scrapers", map[string]any{"host": host})
		return []events.Event{placeholderEvent(
			"Event from "+host,
			"Unable to extract details from this website automatically as it restricts access. Please copy and paste the event details as text instead.",
			rawURL, now,
		)}, nil
	}

	markup, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.log.Warn("page fetch failed", map[string]any{"url": rawURL, "error": err.Error()})
		return []events.Event{placeholderEvent(
			"Event from "+host,
			"Error extracting content from URL: "+err.Error(),
			rawURL, now,
		)}, nil
	}

	pd := pages.Extract(markup, rawURL)
	listing := pages.IsEventListingDomain(host)
	tz := firstNonEmpty(pd.TimeZone, userTZ)

	s.log.Info("web page extraction completed", map[string]any{
		"url":               rawURL,
		"structured_events": len(pd.StructuredEvents),
		"dates":             len(pd.Dates),
		"timezone":          firstNonEmpty(tz, "unknown"),
		"listing_site":      listing,
	})

	switch {
	case len(pd.StructuredEvents) == 1:
		// Datos estructurados: la señal más confiable; estructurado gana
		// cuando está presente.
		return s.extractFromPage(ctx, ComposeInput{
			Content:           StructuredPageContent(pd, pd.StructuredEvents[0], rawURL, userTZ),
			Link:              rawURL,
			TimeZone:          tz,
			Now:               now,
			HasStructuredData: true,
		})

	case len(pd.StructuredEvents) > 1:
		return s.extractPerCandidate(ctx, pd, rawURL, tz, now)

	case len(pd.Dates) > 0 && !listing:
		return s.extractFromPage(ctx, ComposeInput{
			Content:  GeneralPageContent(pd, rawURL, userTZ, false, host),
			Link:     rawURL,
			TimeZone: tz,
			Now:      now,
		})

	case listing:
		return s.extractFromPage(ctx, ComposeInput{
			Content:        GeneralPageContent(pd, rawURL, userTZ, true, host),
			Link:           rawURL,
			TimeZone:       tz,
			Now:            now,
			ExpectMultiple: true,
		})

	default:
		return s.extractFromPage(ctx, ComposeInput{
			Content:  GeneralPageContent(pd, rawURL, userTZ, false, host),
			Link:     rawURL,
			TimeZone: tz,
			Now:      now,
		})
	}
}

// ProcessFile extrae eventos de un binario (documento, imagen o audio).
func (s *Service) ProcessFile(ctx context.Context, media oracle.Media, userTZ string) ([]events.Event, error) {
	if len(media.Data) == 0 {
		return nil, ErrInvalidInput
	}
	kind, ok := oracle.KindOf(media.MIMEType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, media.MIMEType)
	}
	now := s.now()

	prompt := ComposeMedia(kind, media.Name, userTZ, now)
	raw, err := s.oracle.GenerateWithMedia(ctx, media, prompt)
	if err != nil {
		return nil, fmt.Errorf("oracle media call failed: %w", err)
	}

	out := events.Canonicalize(raw, now, "")
	s.log.Info("file extraction completed", map[string]any{
		"kind":   string(kind),
		"events": len(out),
	})
	return out, nil
}

// extractFromPage hace el round-trip único con el oráculo y canonicaliza.
func (s *Service) extractFromPage(ctx context.Context, in ComposeInput) ([]events.Event, error) {
	raw, err := s.oracle.GenerateText(ctx, Compose(in))
	if err != nil {
		return nil, fmt.Errorf("oracle call failed: %w", err)
	}
	return events.Canonicalize(raw, in.Now, in.Link), nil
}

// extractPerCandidate procesa cada evento estructurado con su propio
// round-trip secuencial. Los fallos se aíslan por candidato: uno que falla
// no tumba el request.
func (s *Service) extractPerCandidate(ctx context.Context, pd pages.PageData, rawURL, tz string, now time.Time) ([]events.Event, error) {
	var out []events.Event
	for i, ev := range pd.StructuredEvents {
		raw, err := s.oracle.GenerateText(ctx, Compose(ComposeInput{
			Content:           StructuredPageContent(pd, ev, rawURL, tz),
			Link:              rawURL,
			TimeZone:          tz,
			Now:               now,
			ExpectMultiple:    true,
			HasStructuredData: true,
		}))
		if err != nil {
			s.log.Warn("structured candidate extraction failed", map[string]any{
				"url":       rawURL,
				"candidate": i,
				"error":     err.Error(),
			})
			continue
		}
		out = append(out, events.Canonicalize(raw, now, rawURL)...)
	}

	if len(out) == 0 {
		title := firstNonEmpty(pd.Title, events.DefaultTitle)
		return []events.Event{placeholderEvent(title, "Could not extract event details", rawURL, now)}, nil
	}
	return out, nil
}

// placeholderEvent sintetiza un evento canónico mínimo con descripción
// explicativa (la postura "nunca devolver nada" del sistema).
func placeholderEvent(title, desc, link string, now time.Time) events.Event {
	return events.Candidate{
		Title:       title,
		Description: desc,
	}.Canonical(now, link)
}
