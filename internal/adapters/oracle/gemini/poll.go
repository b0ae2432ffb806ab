package gemini

import (
	"google.golang.org/genai"

	"synthical/internal/ports/oracle"
)

// Máquina de estados del polling de procesamiento de archivos. La función de
// transición es pura sobre (attempt, último estado) para que la política de
// timeout sea testeable sin esperas reales; el loop con sleeps vive en
// client.go.

type PollState int

const (
	PollPending PollState = iota
	PollActive
	PollFailed
	PollTimedOut
)

func (s PollState) String() string {
	switch s {
	case PollPending:
		return "pending"
	case PollActive:
		return "active"
	case PollFailed:
		return "failed"
	case PollTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// Techos de intentos por tipo de media, a intervalo fijo de 1s.
const (
	pollAttemptsDocument = 30
	pollAttemptsImage    = 30
	pollAttemptsAudio    = 45
)

func pollAttemptsFor(kind oracle.Kind) int {
	if kind == oracle.KindAudio {
		return pollAttemptsAudio
	}
	return pollAttemptsDocument
}

// NextPollState decide el próximo estado dado el intento actual (0-based) y
// el último estado reportado por el servicio. Un error de consulta de estado
// se modela como FileStateUnspecified y cuenta como intento consumido.
func NextPollState(attempt, maxAttempts int, state genai.FileState) PollState {
	switch state {
	case genai.FileStateActive:
		return PollActive
	case genai.FileStateFailed:
		return PollFailed
	}
	if attempt+1 >= maxAttempts {
		return PollTimedOut
	}
	return PollPending
}
