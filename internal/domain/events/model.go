package events

import "time"

// Event es la entidad canónica del sistema: un evento de calendario ya
// normalizado. Después de pasar por Canonicalize todos los campos requeridos
// están poblados y los datetimes son RFC3339 UTC válidos — ese es el contrato
// que hace total al serializador ICS.
type Event struct {
	Title         string `json:"title"`
	StartDatetime string `json:"start_datetime"` // RFC3339 UTC, precisión de segundos
	EndDatetime   string `json:"end_datetime"`   // RFC3339 UTC; >= start salvo inversión explícita de la fuente
	Location      string `json:"location"`
	Description   string `json:"description"` // usa [br] como único marcador de salto de línea
	OriginalLink  string `json:"original_link,omitempty"`
}

// Defaults usados por el canonicalizador cuando la fuente no trae el campo.
const (
	DefaultTitle       = "Unknown Event"
	DefaultDescription = "No description provided"
	DefaultDuration    = time.Hour
)

// StartTime parsea start_datetime. ok=false si el valor no es un instante
// RFC3339 válido (solo puede pasar con un Event construido a mano).
func (e Event) StartTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, e.StartDatetime)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// EndTime parsea end_datetime.
func (e Event) EndTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, e.EndDatetime)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
