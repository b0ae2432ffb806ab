package extract

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"synthical/internal/domain/events"
	"synthical/internal/ports/oracle"
)

const maxUploadBytes = 50 << 20 // 50MB, igual que el límite de body del front

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/extract-from-text", extractFromTextHandler(svc))
	r.Post("/extract-from-url", extractFromURLHandler(svc))
	r.Post("/extract-from-file", extractFromFileHandler(svc))
}

type extractTextRequest struct {
	Text         string `json:"text"`
	UserTimeZone string `json:"userTimeZone"`
}

type extractURLRequest struct {
	URL          string `json:"url"`
	UserTimeZone string `json:"userTimeZone"`
}

// extractFileRequest es la variante JSON/base64 del endpoint de archivos.
type extractFileRequest struct {
	FileData     string `json:"fileData"` // base64
	FileType     string `json:"fileType"` // MIME type
	FileName     string `json:"fileName"`
	UserTimeZone string `json:"userTimeZone"`
}

// eventsResponse envuelve la lista canónica de eventos extraídos.
type eventsResponse struct {
	Events []events.Event `json:"events"`
}

// extractFromTextHandler godoc
// @Summary Extraer eventos de texto libre
// @Description Manda el texto al oráculo de extracción y devuelve eventos canónicos. Nunca devuelve una lista vacía: si el oráculo no encuentra JSON recuperable se sintetiza un evento fallback.
// @Tags extract
// @Accept json
// @Produce json
// @Param payload body extractTextRequest true "Texto y timezone IANA del usuario (opcional)"
// @Success 200 {object} eventsResponse
// @Failure 400 {object} map[string]string "No text provided"
// @Failure 500 {object} map[string]string "Fallo del oráculo"
// @Router /api/extract-from-text [post]
func extractFromTextHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extractTextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeError(w, http.StatusBadRequest, "No text provided")
			return
		}

		evs, err := svc.ProcessText(r.Context(), req.Text, req.UserTimeZone)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, "No text provided")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to process text: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, eventsResponse{Events: evs})
	}
}

// extractFromURLHandler godoc
// @Summary Extraer eventos de una página web
// @Description Fetchea la página, saca señales estructuradas (JSON-LD, atributos datetime, patrones de fecha) y compone el contexto para el oráculo. Los fallos de fetch degradan a un evento placeholder; solo los fallos del oráculo devuelven 500.
// @Tags extract
// @Accept json
// @Produce json
// @Param payload body extractURLRequest true "URL y timezone IANA del usuario (opcional)"
// @Success 200 {object} eventsResponse
// @Failure 400 {object} map[string]string "No URL provided"
// @Failure 500 {object} map[string]string "Fallo del oráculo"
// @Router /api/extract-from-url [post]
func extractFromURLHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extractURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			writeError(w, http.StatusBadRequest, "No URL provided")
			return
		}

		evs, err := svc.ProcessURL(r.Context(), req.URL, req.UserTimeZone)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				writeError(w, http.StatusBadRequest, "No URL provided")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to process URL: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, eventsResponse{Events: evs})
	}
}

// extractFromFileHandler godoc
// @Summary Extraer eventos de un archivo (documento, imagen o audio)
// @Description Acepta multipart (campo file) o JSON con fileData en base64. El archivo se sube al oráculo, se espera su procesamiento y se genera la extracción; el archivo subido se borra best-effort.
// @Tags extract
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param payload body extractFileRequest false "Variante JSON: fileData base64 + fileType"
// @Success 200 {object} eventsResponse
// @Failure 400 {object} map[string]string "Archivo faltante o tipo no soportado"
// @Failure 500 {object} map[string]string "Fallo del oráculo"
// @Router /api/extract-from-file [post]
func extractFromFileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		media, ok := readMedia(w, r)
		if !ok {
			return
		}
		tz := media.tz

		evs, err := svc.ProcessFile(r.Context(), media.m, tz)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				writeError(w, http.StatusBadRequest, "No file data provided")
			case errors.Is(err, ErrUnsupportedFileType):
				writeError(w, http.StatusBadRequest, "Unsupported file type. Supported types: Documents (PDF, DOC, DOCX, TXT, RTF), Images (PNG, JPG, JPEG, WebP, HEIF), Audio (WAV, MP3, AIFF, AAC, OGG, FLAC, WebM, MP4)")
			default:
				writeError(w, http.StatusInternalServerError, "Failed to process file: "+err.Error())
			}
			return
		}
		writeJSON(w, http.StatusOK, eventsResponse{Events: evs})
	}
}

type mediaRequest struct {
	m  oracle.Media
	tz string
}

// readMedia soporta ambas variantes de transporte del archivo. Escribe la
// respuesta de error y devuelve ok=false cuando el request es inválido.
func readMedia(w http.ResponseWriter, r *http.Request) (mediaRequest, bool) {
	ct := r.Header.Get("Content-Type")

	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return mediaRequest{}, false
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No file data provided")
			return mediaRequest{}, false
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		if err != nil || len(data) == 0 {
			writeError(w, http.StatusBadRequest, "No file data provided")
			return mediaRequest{}, false
		}

		mime := r.FormValue("fileType")
		if mime == "" {
			mime = hdr.Header.Get("Content-Type")
		}
		if strings.TrimSpace(mime) == "" {
			writeError(w, http.StatusBadRequest, "File type not specified")
			return mediaRequest{}, false
		}

		return mediaRequest{
			m: oracle.Media{
				Data:     data,
				MIMEType: mime,
				Name:     firstNonEmpty(hdr.Filename, "document"),
			},
			tz: r.FormValue("userTimeZone"),
		}, true
	}

	var req extractFileRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return mediaRequest{}, false
	}
	if strings.TrimSpace(req.FileData) == "" {
		writeError(w, http.StatusBadRequest, "No file data provided")
		return mediaRequest{}, false
	}
	if strings.TrimSpace(req.FileType) == "" {
		writeError(w, http.StatusBadRequest, "File type not specified")
		return mediaRequest{}, false
	}

	data, err := base64.StdEncoding.DecodeString(req.FileData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 file data")
		return mediaRequest{}, false
	}

	return mediaRequest{
		m: oracle.Media{
			Data:     data,
			MIMEType: req.FileType,
			Name:     firstNonEmpty(req.FileName, "document"),
		},
		tz: req.UserTimeZone,
	}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
