package calendar

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"synthical/internal/domain/events"
)

func RegisterRoutes(r chi.Router, s *Serializer) {
	r.Post("/generate-calendar", generateCalendarHandler(s))
}

// generateCalendarRequest acepta un array de eventos o un evento único
// (compatibilidad con clientes que mandan uno solo).
type generateCalendarRequest struct {
	Events []events.Event `json:"events"`
	Event  *events.Event  `json:"event"`
}

var filenameSanitizer = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// generateCalendarHandler godoc
// @Summary Generar documento de calendario
// @Description Convierte eventos canónicos en un documento ICS descargable. La generación es total: siempre devuelve un documento válido aunque los eventos vengan corruptos.
// @Tags calendar
// @Accept json
// @Produce text/calendar
// @Param payload body generateCalendarRequest true "Eventos a serializar; acepta events[] o event único"
// @Success 200 {string} string "Documento ICS"
// @Failure 400 {object} map[string]string "No valid events provided"
// @Router /api/generate-calendar [post]
func generateCalendarHandler(s *Serializer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateCalendarRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		evs := req.Events
		if len(evs) == 0 && req.Event != nil {
			evs = []events.Event{*req.Event}
		}
		if len(evs) == 0 {
			writeError(w, http.StatusBadRequest, "No valid events provided")
			return
		}

		doc := s.Generate(evs)

		w.Header().Set("Content-Type", "text/calendar")
		w.Header().Set("Content-Disposition", "attachment; filename="+icsFilename(evs))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(doc))
	}
}

// icsFilename: título del evento para descargas de un solo evento,
// "events.ics" para varios.
func icsFilename(evs []events.Event) string {
	if len(evs) != 1 {
		return "events.ics"
	}
	title := strings.TrimSpace(evs[0].Title)
	if title == "" {
		return "event.ics"
	}
	name := filenameSanitizer.ReplaceAllString(title, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "event.ics"
	}
	return name + ".ics"
}

// writeError está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
