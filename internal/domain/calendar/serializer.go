package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"synthical/internal/domain/events"
	"synthical/internal/platform/logger"
)

// Serializador de calendario: convierte eventos canónicos en un documento
// ICS. La generación es total: una cadena ordenada de builders, cada uno
// envuelto en una frontera de fallo, garantiza que siempre sale *algún*
// documento válido — nunca un error hacia el request boundary.

const prodID = "synthical/ics"

// Documento de último recurso, siempre válido.
const fallbackDocument = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"CALSCALE:GREGORIAN\r\n" +
	"PRODID:synthical/ics\r\n" +
	"METHOD:PUBLISH\r\n" +
	"X-PUBLISHED-TTL:PT1H\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:synthical-fallback@synthical.app\r\n" +
	"SUMMARY:Calendar Event\r\n" +
	"DTSTAMP:20250419T000000Z\r\n" +
	"DTSTART:20250419T000000Z\r\n" +
	"DTEND:20250419T010000Z\r\n" +
	"DESCRIPTION:There was an issue generating the full event details.\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

var multiNewline = regexp.MustCompile(`\n{3,}`)

type Serializer struct {
	log logger.Logger
	now func() time.Time
	uid func() string
}

func NewSerializer(log logger.Logger) *Serializer {
	return &Serializer{
		log: log,
		now: time.Now,
		uid: uuid.NewString,
	}
}

type builderFn func(evs []events.Event, now time.Time) (string, error)

// Generate produce el documento ICS para evs. Nunca falla: si el builder
// estructurado reporta error, cae al ensamblado manual; si ese también falla,
// devuelve el documento placeholder.
func (s *Serializer) Generate(evs []events.Event) string {
	now := s.now().UTC()

	builders := []struct {
		name string
		fn   builderFn
	}{
		{"structured", s.buildStructured},
		{"manual", s.buildManual},
	}

	for _, b := range builders {
		doc, err := runBuilder(b.fn, evs, now)
		if err == nil {
			return doc
		}
		s.log.Warn("ics builder failed, falling through", map[string]any{
			"builder": b.name,
			"error":   err.Error(),
			"events":  len(evs),
		})
	}

	s.log.Error("all ics builders failed, returning placeholder document", map[string]any{
		"events": len(evs),
	})
	return fallbackDocument
}

// runBuilder es la frontera de fallo: convierte panics del builder en error
// para que la cadena siga con el siguiente.
func runBuilder(fn builderFn, evs []events.Event, now time.Time) (doc string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("builder panic: %v", r)
		}
	}()
	return fn(evs, now)
}

// buildStructured es el nivel 1: documento multi-evento completo vía
// golang-ical.
func (s *Serializer) buildStructured(evs []events.Event, now time.Time) (string, error) {
	if len(evs) == 0 {
		return "", errors.New("no events to serialize")
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(prodID)
	cal.SetCalscale("GREGORIAN")
	cal.SetXPublishedTTL("PT1H")

	for _, ev := range evs {
		start, end := eventTimes(ev, now)

		ve := cal.AddEvent(s.uid() + "@synthical")
		ve.SetDtStampTime(now)
		ve.SetStartAt(start)
		ve.SetEndAt(end)
		ve.SetSummary(eventTitle(ev))
		if loc := strings.TrimSpace(ev.Location); loc != "" {
			ve.SetLocation(loc)
		}
		if desc := formatDescription(ev.Description); desc != "" {
			ve.SetDescription(desc)
		}
		if strings.TrimSpace(ev.OriginalLink) != "" {
			ve.SetURL(ev.OriginalLink)
		}
	}

	doc := cal.Serialize()
	if !strings.Contains(doc, "BEGIN:VEVENT") {
		return "", errors.New("structured builder produced no event block")
	}
	return doc, nil
}

// buildManual es el nivel 2: un documento mínimo de un solo evento, armado a
// mano desde el primer Event, con el formato de timestamp computado acá.
func (s *Serializer) buildManual(evs []events.Event, now time.Time) (string, error) {
	if len(evs) == 0 {
		return "", errors.New("no events to serialize")
	}
	ev := evs[0]
	start, end := eventTimes(ev, now)

	desc := formatDescription(ev.Description)
	desc = strings.ReplaceAll(desc, "\n", "\\n")

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
		"PRODID:" + prodID,
		"METHOD:PUBLISH",
		"X-PUBLISHED-TTL:PT1H",
		"BEGIN:VEVENT",
		"UID:" + s.uid() + "@synthical",
		"SUMMARY:" + eventTitle(ev),
		"DTSTAMP:" + wireStamp(now),
		"DTSTART:" + wireStamp(start),
		"DTEND:" + wireStamp(end),
		"LOCATION:" + strings.TrimSpace(ev.Location),
		"DESCRIPTION:" + desc,
	}
	if strings.TrimSpace(ev.OriginalLink) != "" {
		lines = append(lines, "URL:"+ev.OriginalLink)
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")

	return strings.Join(lines, "\r\n") + "\r\n", nil
}

// eventTimes parsea los instantes del evento. Los eventos canónicos siempre
// parsean; un record no-canónico degrada a now/now+1h en vez de romper.
func eventTimes(ev events.Event, now time.Time) (time.Time, time.Time) {
	start, ok := ev.StartTime()
	if !ok {
		start = now
	}
	end, ok := ev.EndTime()
	if !ok {
		end = start.Add(events.DefaultDuration)
	}
	return start.UTC(), end.UTC()
}

func eventTitle(ev events.Event) string {
	title := strings.TrimSpace(ev.Title)
	if title == "" {
		title = events.DefaultTitle
	}
	return title
}

// wireStamp renderiza un instante como civil-time-in-UTC (YYYYMMDDTHHMMSSZ).
func wireStamp(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatDescription convierte los marcadores [br] en saltos de línea reales y
// colapsa 3+ saltos consecutivos a exactamente 2 (varios clientes de
// calendario renderizan mal los bloques de líneas vacías).
func formatDescription(desc string) string {
	if desc == "" {
		return ""
	}
	out := strings.ReplaceAll(desc, "[br]", "\n")
	out = multiNewline.ReplaceAllString(out, "\n\n")
	return out
}
