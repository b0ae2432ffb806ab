package oracle

import (
	"context"
	"strings"
)

// Client es el puerto hacia el servicio externo de razonamiento (el
// "oráculo" de extracción). Se trata como un colaborador opaco: texto
// compuesto entra, texto crudo sale. La canonicalización de esa salida es
// responsabilidad del caller.
type Client interface {
	// GenerateText manda un contexto compuesto de puro texto.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateWithMedia sube el binario, espera a que el servicio lo
	// procese y genera referenciándolo. El adapter es dueño del ciclo de
	// vida del archivo subido (borrado best-effort incluido).
	GenerateWithMedia(ctx context.Context, media Media, prompt string) (string, error)
}

// Media es un binario a procesar (documento, imagen o audio).
type Media struct {
	Data     []byte
	MIMEType string
	Name     string
}

// Kind clasifica el media para el framing del prompt y el techo de polling.
type Kind string

const (
	KindDocument Kind = "document"
	KindImage    Kind = "image"
	KindAudio    Kind = "audio"
)

// KindOf clasifica un MIME type base. ok=false si el tipo no está soportado.
func KindOf(mimeType string) (Kind, bool) {
	base := baseMIME(mimeType)
	switch base {
	case "application/pdf", "text/plain", "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/rtf":
		return KindDocument, true
	case "image/png", "image/jpeg", "image/jpg", "image/webp", "image/heif":
		return KindImage, true
	case "audio/wav", "audio/mp3", "audio/mpeg", "audio/aiff", "audio/aac",
		"audio/ogg", "audio/flac", "audio/webm", "audio/mp4":
		return KindAudio, true
	}
	// Cualquier audio/* restante se acepta (los recorders de browser usan
	// MIME types con codecs variados).
	if strings.HasPrefix(base, "audio/") {
		return KindAudio, true
	}
	return "", false
}

// BaseMIME descarta los parámetros del MIME type (p.ej. ";codecs=opus").
func BaseMIME(mimeType string) string {
	return baseMIME(mimeType)
}

func baseMIME(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.TrimSpace(base)
}
