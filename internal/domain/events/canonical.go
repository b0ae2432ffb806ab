package events

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Este archivo es la frontera de confianza entre el oráculo (texto libre,
// potencialmente basura) y el resto del sistema. Canonicalize nunca falla y
// nunca devuelve una lista vacía.

// Candidate es un evento crudo, tal como lo enuncia el oráculo o una señal
// estructurada de página. Ningún campo es confiable todavía.
type Candidate struct {
	Title         string
	StartDatetime string
	EndDatetime   string
	Location      string
	Description   string
}

// resultKind etiqueta la forma que tenía la respuesta del oráculo.
type resultKind int

const (
	resultEmpty resultKind = iota
	resultSingle
	resultArray
)

// oracleResult es la unión etiquetada: array de eventos, objeto único, o nada.
type oracleResult struct {
	kind       resultKind
	candidates []Candidate
}

// Canonicalize convierte la respuesta cruda del oráculo en >=1 eventos
// canónicos. Precedencia de decodificación: primero un span tipo array,
// después un span tipo objeto, y si no hay JSON recuperable se sintetiza un
// evento fallback con un excerpt del texto. link (opcional) se adjunta como
// original_link a todos los eventos resultantes.
func Canonicalize(raw string, now time.Time, link string) []Event {
	res := decodeOracleText(raw)

	if res.kind == resultEmpty {
		return []Event{fallbackEvent(raw, now, link)}
	}

	out := make([]Event, 0, len(res.candidates))
	for _, c := range res.candidates {
		out = append(out, c.Canonical(now, link))
	}
	if len(out) == 0 {
		return []Event{fallbackEvent(raw, now, link)}
	}
	return out
}

// Canonical aplica el defaulting de campos y devuelve un Event completamente
// poblado. Un end_datetime explícito nunca se reordena aunque sea anterior al
// start; solo se sintetiza start+1h cuando falta o no parsea.
func (c Candidate) Canonical(now time.Time, link string) Event {
	start, ok := parseInstant(c.StartDatetime)
	if !ok {
		start = now.UTC()
	}

	end, ok := parseInstant(c.EndDatetime)
	if !ok {
		end = start.Add(DefaultDuration)
	}

	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = DefaultTitle
	}

	desc := strings.TrimSpace(c.Description)
	if desc == "" {
		desc = DefaultDescription
	}

	return Event{
		Title:         title,
		StartDatetime: formatInstant(start),
		EndDatetime:   formatInstant(end),
		Location:      strings.TrimSpace(c.Location),
		Description:   desc,
		OriginalLink:  link,
	}
}

func fallbackEvent(raw string, now time.Time, link string) Event {
	excerpt := strings.TrimSpace(raw)
	if len(excerpt) > 200 {
		// Retrocede a un límite de runa para no partir UTF-8.
		n := 200
		for n > 0 && !utf8.RuneStart(excerpt[n]) {
			n--
		}
		excerpt = excerpt[:n] + "..."
	}
	desc := "Could not extract structured event data."
	if excerpt != "" {
		desc += " Raw response: " + excerpt
	}

	start := now.UTC()
	return Event{
		Title:         DefaultTitle,
		StartDatetime: formatInstant(start),
		EndDatetime:   formatInstant(start.Add(DefaultDuration)),
		Location:      "",
		Description:   desc,
		OriginalLink:  link,
	}
}

func decodeOracleText(raw string) oracleResult {
	// 1) Array primero: también cubre respuestas envueltas tipo
	// {"events":[...]} porque el span balanceado encuentra el array interno.
	// Un span que no parsea no cancela la búsqueda: se avanza más allá de su
	// delimitador de apertura y se sigue escaneando, para que tokens de prosa
	// entre corchetes ([Note], links markdown) no enmascaren el array real.
	for rest := raw; ; {
		span, at, ok := balancedSpan(rest, '[', ']')
		if !ok {
			break
		}
		var arr []map[string]any
		if err := json.Unmarshal([]byte(span), &arr); err == nil && len(arr) > 0 {
			cands := make([]Candidate, 0, len(arr))
			for _, m := range arr {
				cands = append(cands, candidateFromMap(m))
			}
			return oracleResult{kind: resultArray, candidates: cands}
		}
		rest = rest[at+1:]
	}

	// 2) Objeto único, con el mismo rescan.
	for rest := raw; ; {
		span, at, ok := balancedSpan(rest, '{', '}')
		if !ok {
			break
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(span), &m); err == nil && len(m) > 0 {
			return oracleResult{kind: resultSingle, candidates: []Candidate{candidateFromMap(m)}}
		}
		rest = rest[at+1:]
	}

	// 3) No hay JSON recuperable.
	return oracleResult{kind: resultEmpty}
}

// balancedSpan encuentra el primer span balanceado que empieza en open y
// termina en close, ignorando delimitadores dentro de strings JSON.
// Devuelve además el índice del delimitador de apertura para que el caller
// pueda reanudar el escaneo después de un span que no parseó.
func balancedSpan(s string, open, close byte) (string, int, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", -1, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], start, true
			}
		}
	}
	return "", start, false
}

// candidateFromMap extrae los campos conocidos de un objeto arbitrario.
// Acepta tanto las claves del contrato del oráculo (start_datetime) como las
// de schema.org (startDate) para que las señales estructuradas pasen por el
// mismo defaulting.
func candidateFromMap(m map[string]any) Candidate {
	return Candidate{
		Title:         stringField(m, "title", "name"),
		StartDatetime: stringField(m, "start_datetime", "startDate"),
		EndDatetime:   stringField(m, "end_datetime", "endDate"),
		Location:      locationField(m),
		Description:   stringField(m, "description"),
	}
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func locationField(m map[string]any) string {
	v, ok := m["location"]
	if !ok {
		return ""
	}
	switch loc := v.(type) {
	case string:
		return loc
	case map[string]any:
		return FlattenLocation(loc)
	}
	return ""
}

// FlattenLocation aplana un objeto location (schema.org Place o similar) a un
// string presentable: nombre y campos de dirección, en ese orden.
func FlattenLocation(loc map[string]any) string {
	parts := make([]string, 0, 4)
	if name, ok := loc["name"].(string); ok && strings.TrimSpace(name) != "" {
		parts = append(parts, strings.TrimSpace(name))
	}

	if addr, ok := loc["address"].(map[string]any); ok {
		for _, k := range []string{"streetAddress", "addressLocality", "addressRegion", "addressCountry"} {
			if v, ok := addr[k].(string); ok && strings.TrimSpace(v) != "" {
				parts = append(parts, strings.TrimSpace(v))
			}
		}
	} else if addr, ok := loc["address"].(string); ok && strings.TrimSpace(addr) != "" {
		parts = append(parts, strings.TrimSpace(addr))
	}

	if len(parts) == 0 {
		// Último recurso: valores string del objeto, en orden estable.
		keys := make([]string, 0, len(loc))
		for k := range loc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if v, ok := loc[k].(string); ok && strings.TrimSpace(v) != "" {
				parts = append(parts, strings.TrimSpace(v))
			}
		}
	}

	return strings.Join(parts, ", ")
}

// parseInstant intenta un parse calendario real. Acepta RFC3339 y dos
// variantes tolerantes (sin zona => UTC, solo fecha => medianoche UTC).
func parseInstant(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func formatInstant(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
