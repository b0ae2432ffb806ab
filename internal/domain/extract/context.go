package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"synthical/internal/domain/pages"
	"synthical/internal/ports/oracle"
)

// Context Composer: arma el bloque de contexto acotado que se manda al
// oráculo. Es puro dado su input — es el único lugar que codifica la
// gramática de respuesta esperada, así que se testea exhaustivamente.

// Presupuestos de caracteres por tipo de contexto de página.
const (
	structuredExcerptBudget = 1000
	singleExcerptBudget     = 1500
	listingExcerptBudget    = 2000
)

// Indicadores de que un texto libre probablemente describe varios eventos.
var multiEventIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(first|second|third|next|another)\s+event\b`),
	regexp.MustCompile(`(?i)\b(also|additionally)\b.*\b(attend|go to|participating)\b`),
	regexp.MustCompile(`(?i)\b(multiple|several|many|two|three|few)\s+events\b`),
	regexp.MustCompile(`(?i)\bevent\s+\d+\b`),
	regexp.MustCompile(`(?i)\b(and|also)\b.*\b(on|at)\b.*\b(different|another)\b`),
}

// ExpectsMultipleEvents aplica los matchers de multi-evento sobre texto libre.
func ExpectsMultipleEvents(text string) bool {
	for _, re := range multiEventIndicators {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// ComposeInput son los insumos del composer para contenido textual.
type ComposeInput struct {
	Content           string // texto crudo del usuario o bloque de página ya armado
	Link              string // URL de origen, si el contenido viene de una página
	TimeZone          string // nombre IANA del usuario o hint detectado; "" = desconocido
	Now               time.Time
	ExpectMultiple    bool
	HasStructuredData bool
}

// Compose produce el bloque de contexto completo para una extracción textual.
// Siempre incluye: el contrato de salida JSON, el instante actual en UTC y
// renderizado en la timezone del usuario, y la instrucción de resolver fechas
// relativas contra esos instantes emitiendo solo UTC ISO-8601.
func Compose(in ComposeInput) string {
	var b strings.Builder

	b.WriteString(`You are an expert event data extraction assistant. You receive event details that may have missing or malformed fields.
Your task is to extract and format complete, accurate event information optimized for calendar applications.
Examine the original content carefully, focusing on:
- Dates and times (be precise with years, months, days, hours)
- Event title
- Location (physical or virtual)
- Description and other metadata

You will output ONLY well-formatted JSON in this format:

{
  "title": "<Event Title>",
  "start_datetime": "<ISO 8601 UTC>",
  "end_datetime": "<ISO 8601 UTC>",
  "location": "<Event Location>",
  "description": "<Event Description>"
}

Use minimal formatting for the description with only [br] tags for line breaks. Structure the description with these sections when the source supports them: EVENT OVERVIEW, DATE & TIME, LOCATION, TYPE, AGENDA, SPEAKERS, TARGET AUDIENCE, REGISTRATION INFO, ADDITIONAL INFORMATION.

`)

	tz := resolveZoneName(in.TimeZone)
	fmt.Fprintf(&b, "Current date and time (UTC): %s\n", in.Now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Current date and time in the user's timezone (%s): %s\n", tz, renderInZone(in.Now, in.TimeZone))

	b.WriteString(`Instructions:
- Resolve relative date phrases ("today", "tomorrow", "next Friday") against the current date and time above.
- Ensure start_datetime and end_datetime are in ISO 8601 format with UTC timezone. Output ONLY UTC datetimes.
- If no end time is provided, add 1 hour to the start_datetime.
- Be precise about the year, month, and day - never default to placeholder dates.
- IMPORTANT: Use only [br] tags for line breaks in the description, avoid all other formatting.
`)
	fmt.Fprintf(&b, "- NOTE: The user's timezone is %s. Use this information when converting times to UTC.\n", tz)

	if in.ExpectMultiple {
		b.WriteString("- For multiple events: identify and return EACH SEPARATE EVENT as its own complete JSON object in an array.\n")
	} else {
		b.WriteString("- Return ONLY the single JSON object described above.\n")
	}

	if in.HasStructuredData {
		b.WriteString("- NOTE: The content contains structured data (schema.org, meta tags, etc). This is highly reliable information that should be prioritized.\n")
	}

	b.WriteString("\nThe original content is:\n")
	b.WriteString(in.Content)
	if strings.TrimSpace(in.Link) != "" {
		fmt.Fprintf(&b, "\nThe original link is: %s\n", in.Link)
	}

	return b.String()
}

// ComposeMedia arma el prompt para media binario ya subido. El framing
// (document/image/audio) cambia la redacción de la instrucción pero no el
// contrato de salida.
func ComposeMedia(kind oracle.Kind, fileName, timeZone string, now time.Time) string {
	var mediaType, actionVerb, instructions string
	switch kind {
	case oracle.KindImage:
		mediaType = "image"
		actionVerb = "Analyze this"
		instructions = "Look for any text containing dates, times, locations, event titles, and descriptions. This could be a screenshot, poster, invitation, or any image with event information."
	case oracle.KindAudio:
		mediaType = "audio recording"
		actionVerb = "Listen to this"
		instructions = `Pay attention to spoken dates and times (like "tomorrow at 3", "next Tuesday"), event descriptions, locations mentioned, and people or attendees referenced.`
	default:
		mediaType = "document"
		actionVerb = "Analyze this"
		instructions = "Look for dates, times, locations, event titles, and descriptions in the text content."
	}

	tz := resolveZoneName(timeZone)
	if strings.TrimSpace(fileName) == "" {
		fileName = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s and extract any event information mentioned. %s\n\n", actionVerb, mediaType, instructions)
	b.WriteString("IMPORTANT CONTEXT:\n")
	fmt.Fprintf(&b, "- Current date/time (UTC): %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Current date/time in user timezone (%s): %s\n", tz, renderInZone(now, timeZone))
	b.WriteString("- When processing relative dates like \"tomorrow\", \"next week\", calculate from the above date\n")
	fmt.Fprintf(&b, "- File name: %s\n\n", fileName)

	b.WriteString(`Return ONLY a JSON object in this exact format:
{
  "title": "Event title",
  "start_datetime": "YYYY-MM-DDTHH:MM:SSZ (ISO 8601 UTC)",
  "end_datetime": "YYYY-MM-DDTHH:MM:SSZ (ISO 8601 UTC)",
  "location": "Event location",
  "description": "Event description with [br] tags for line breaks"
}

For multiple events, return an array of these objects.
CRITICAL: Convert all times to UTC format. Be precise with dates and times.
IMPORTANT: If no end time is specified, default the end time to 1 hour after the start time.
`)
	if kind == oracle.KindAudio {
		b.WriteString("Focus on the spoken content and extract clear, actionable event details.\n")
	}
	return b.String()
}

// StructuredPageContent arma el bloque de contenido para una página con un
// evento estructurado. El excerpt de contenido va acotado.
func StructuredPageContent(pd pages.PageData, ev pages.StructuredEvent, url string, userTZ string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PAGE TITLE: %s\n", pd.Title)
	fmt.Fprintf(&b, "TIMEZONE: %s\n", firstNonEmpty(pd.TimeZone, userTZ, "Unknown"))
	fmt.Fprintf(&b, "URL: %s\n", url)
	b.WriteString("STRUCTURED EVENT DATA:\n")
	b.WriteString(structuredJSON(ev))
	b.WriteString("\n\nDATES DETECTED ON PAGE:\n")
	b.WriteString(datesBlock(pd.Dates))
	b.WriteString("\n\nADDITIONAL PAGE CONTENT:\n")
	b.WriteString(truncate(pd.TextContent, structuredExcerptBudget))
	return b.String()
}

// GeneralPageContent arma el bloque para páginas sin datos estructurados.
// listing=true sube el presupuesto y antepone el aviso de multi-evento.
func GeneralPageContent(pd pages.PageData, url string, userTZ string, listing bool, hostname string) string {
	budget := singleExcerptBudget
	var b strings.Builder
	if listing {
		budget = listingExcerptBudget
		fmt.Fprintf(&b, "IMPORTANT: This page is from %s which is likely an EVENT SITE containing MULTIPLE EVENTS. Please carefully analyze and extract ALL events from this page.\n\n", hostname)
	}
	fmt.Fprintf(&b, "PAGE TITLE: %s\n", pd.Title)
	fmt.Fprintf(&b, "TIMEZONE: %s\n", firstNonEmpty(pd.TimeZone, userTZ, "Unknown"))
	fmt.Fprintf(&b, "URL: %s\n\n", url)
	b.WriteString("IMPORTANT - EXACT DATES DETECTED:\n")
	b.WriteString(datesBlock(pd.Dates))
	b.WriteString("\n\nPAGE CONTENT:\n")
	b.WriteString(truncate(pd.TextContent, budget))
	return b.String()
}

func structuredJSON(ev pages.StructuredEvent) string {
	payload := ev.Raw
	if payload == nil {
		payload = map[string]any{
			"name":        ev.Name,
			"startDate":   ev.StartDate,
			"endDate":     ev.EndDate,
			"description": ev.Description,
			"location":    ev.Location,
		}
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func datesBlock(dates []string) string {
	if len(dates) == 0 {
		return "No specific dates detected automatically. Please extract dates from the content below."
	}
	lines := make([]string, 0, len(dates))
	for _, d := range dates {
		lines = append(lines, "- "+d)
	}
	return strings.Join(lines, "\n")
}

// renderInZone renderiza el instante en la timezone pedida; si el nombre no
// se reconoce, cae a UTC (best-effort).
func renderInZone(now time.Time, tz string) string {
	loc := time.UTC
	if strings.TrimSpace(tz) != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	return now.In(loc).Format("2006-01-02 15:04:05 MST")
}

func resolveZoneName(tz string) string {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return "Unknown"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return tz + " (unrecognized, using UTC)"
	}
	return tz
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// truncate corta a n bytes sin partir una runa multi-byte.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
