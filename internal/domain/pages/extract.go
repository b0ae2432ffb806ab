package pages

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"synthical/internal/domain/events"
)

// Structured Signal Extractor: dado el markup de una página, saca candidatos
// legibles por máquina (JSON-LD tipo Event, atributos datetime, patrones de
// fecha en texto, pistas de timezone) y un excerpt acotado del contenido.
// Es puro: no hace I/O; el fetch lo aporta el caller.

const (
	// Presupuesto de caracteres del excerpt de contenido.
	textBudget = 5000

	// Un contenedor "principal" tiene que aportar al menos esto para
	// preferirlo sobre el body completo.
	minMainText = 100
)

// StructuredEvent es un candidato normalizado desde JSON-LD u otro bloque
// schema-tagged "Event". Los campos son crudos: el defaulting real pasa por
// el canonicalizador.
type StructuredEvent struct {
	Name        string         `json:"name"`
	StartDate   string         `json:"startDate"`
	EndDate     string         `json:"endDate"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	Raw         map[string]any `json:"-"`
}

// PageData es la salida del extractor para una página.
type PageData struct {
	Title            string
	TimeZone         string
	Metadata         map[string]string
	StructuredEvents []StructuredEvent
	Dates            []string
	TextContent      string
}

// Matchers de fecha, en orden. Cada uno es independiente; los resultados se
// concatenan y se deduplican con semántica de set.
var datePatterns = []*regexp.Regexp{
	// ISO datetime
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d{3})?Z?`),
	// ISO date
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	// m/d/yyyy
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	// Nombre de mes + día + año
	regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2}(?:st|nd|rd|th)?,? \d{4}\b`),
	// Nombre de mes con hora
	regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{1,2}(?:st|nd|rd|th)?,? \d{4} at \d{1,2}(?::\d{2})?\s*(?:am|pm|AM|PM)?\b`),
}

var timezonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(UTC|GMT)([+-]\d{1,2}(?::\d{2})?)?`),
	regexp.MustCompile(`\b(PDT|PST|EDT|EST|CDT|CST|MDT|MST|CEST|CET|BST|IST|JST|AEST)\b`),
	regexp.MustCompile(`(?i)\bTime ?[Zz]one:\s*([A-Za-z/_]+)`),
}

var spaceRe = regexp.MustCompile(`\s+`)

// Extract parsea el markup y devuelve las señales estructuradas de la página.
func Extract(markup, pageURL string) PageData {
	out := PageData{Metadata: map[string]string{}}

	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		// html.Parse casi nunca falla (repara lo que puede); si falla,
		// devolvemos lo detectable sobre el texto crudo.
		out.Dates = matchDates(markup)
		out.TimeZone = scanTimeZone(markup)
		out.TextContent = truncate(collapseSpace(markup), textBudget)
		return out
	}

	var jsonldBlocks []string
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "title":
			if out.Title == "" {
				out.Title = strings.TrimSpace(nodeText(n))
			}
		case "meta":
			name := attr(n, "name")
			if name == "" {
				name = attr(n, "property")
			}
			if content := attr(n, "content"); name != "" && content != "" {
				out.Metadata[name] = content
			}
		case "script":
			if strings.EqualFold(attr(n, "type"), "application/ld+json") {
				jsonldBlocks = append(jsonldBlocks, nodeText(n))
			}
		case "time":
			if dt := attr(n, "datetime"); dt != "" {
				out.Dates = append(out.Dates, dt)
			}
		default:
			if dt := attr(n, "datetime"); dt != "" {
				out.Dates = append(out.Dates, dt)
			}
		}
	})

	// JSON-LD primero: es la señal más confiable.
	for _, block := range jsonldBlocks {
		evs := parseJSONLD(block)
		for _, ev := range evs {
			out.StructuredEvents = append(out.StructuredEvents, ev)
			if ev.StartDate != "" {
				out.Dates = append(out.Dates, ev.StartDate)
			}
			if ev.EndDate != "" {
				out.Dates = append(out.Dates, ev.EndDate)
			}
		}
	}

	bodyText := textOf(root)
	out.Dates = append(out.Dates, matchDates(bodyText)...)
	out.Dates = dedup(out.Dates)

	// Timezone: meta tags primero, después scan por regex; gana el primero.
	if tz, ok := out.Metadata["timezone"]; ok && strings.TrimSpace(tz) != "" {
		out.TimeZone = strings.TrimSpace(tz)
	} else {
		out.TimeZone = scanTimeZone(markup)
	}

	out.TextContent = mainText(root, bodyText)
	return out
}

// parseJSONLD acepta un objeto Event, un array de objetos, o un wrapper
// @graph con eventos adentro.
func parseJSONLD(block string) []StructuredEvent {
	var data any
	if err := json.Unmarshal([]byte(block), &data); err != nil {
		return nil
	}

	var out []StructuredEvent
	var visit func(v any)
	visit = func(v any) {
		switch node := v.(type) {
		case []any:
			for _, item := range node {
				visit(item)
			}
		case map[string]any:
			if isEventType(node["@type"]) {
				out = append(out, normalizeStructured(node))
			}
			if graph, ok := node["@graph"]; ok {
				visit(graph)
			}
		}
	}
	visit(data)
	return out
}

func isEventType(v any) bool {
	switch t := v.(type) {
	case string:
		return t == "Event" || strings.HasSuffix(t, "Event")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && (s == "Event" || strings.HasSuffix(s, "Event")) {
				return true
			}
		}
	}
	return false
}

func normalizeStructured(m map[string]any) StructuredEvent {
	ev := StructuredEvent{Raw: m}
	if v, ok := m["name"].(string); ok {
		ev.Name = strings.TrimSpace(v)
	}
	if v, ok := m["startDate"].(string); ok {
		ev.StartDate = strings.TrimSpace(v)
	}
	if v, ok := m["endDate"].(string); ok {
		ev.EndDate = strings.TrimSpace(v)
	}
	if v, ok := m["description"].(string); ok {
		ev.Description = strings.TrimSpace(v)
	}
	switch loc := m["location"].(type) {
	case string:
		ev.Location = strings.TrimSpace(loc)
	case map[string]any:
		ev.Location = events.FlattenLocation(loc)
	}
	return ev
}

// mainText prefiere contenedores de contenido (main/article/role=main o
// ids/clases content-y) y cae al body cuando no aportan suficiente texto.
func mainText(root *html.Node, bodyText string) string {
	var best string
	walk(root, func(n *html.Node) {
		if best != "" || n.Type != html.ElementNode {
			return
		}
		if isMainContainer(n) {
			txt := collapseSpace(textOf(n))
			if len(txt) > minMainText {
				best = txt
			}
		}
	})
	if best == "" {
		best = collapseSpace(bodyText)
	}
	return truncate(best, textBudget)
}

func isMainContainer(n *html.Node) bool {
	switch n.Data {
	case "main", "article":
		return true
	}
	if strings.EqualFold(attr(n, "role"), "main") {
		return true
	}
	id := strings.ToLower(attr(n, "id"))
	switch id {
	case "content", "main-content":
		return true
	}
	for _, class := range strings.Fields(strings.ToLower(attr(n, "class"))) {
		switch class {
		case "content", "main-content", "post-content", "entry-content":
			return true
		}
	}
	return false
}

func scanTimeZone(markup string) string {
	for _, re := range timezonePatterns {
		if m := re.FindString(markup); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func matchDates(text string) []string {
	var out []string
	for _, re := range datePatterns {
		out = append(out, re.FindAllString(text, -1)...)
	}
	return out
}

func dedup(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText concatena los nodos de texto directos e indirectos de n,
// sin filtrar nada (se usa para <title> y <script>).
func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

// textOf extrae el texto visible: omite los subtrees de script y style.
func textOf(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(c *html.Node) {
		if c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style") {
			return
		}
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
	}
	visit(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
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
