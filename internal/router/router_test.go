package router_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"synthical/internal/platform/logger"
	"synthical/internal/ports/oracle"
	"synthical/internal/router"
)

// stubOracle devuelve respuestas fijas; err gana si está seteado.
type stubOracle struct {
	textResp  string
	mediaResp string
	err       error
}

func (s *stubOracle) GenerateText(context.Context, string) (string, error) {
	return s.textResp, s.err
}

func (s *stubOracle) GenerateWithMedia(context.Context, oracle.Media, string) (string, error) {
	return s.mediaResp, s.err
}

type stubFetcher struct {
	markup string
	err    error
}

func (f *stubFetcher) Fetch(context.Context, string) (string, error) {
	return f.markup, f.err
}

func newTestServer(oc *stubOracle, f *stubFetcher) *httptest.Server {
	return httptest.NewServer(router.NewRouter(router.Options{
		Oracle:  oc,
		Fetcher: f,
		Logger:  logger.New(logger.Options{Level: logger.Error}),
	}))
}

func TestHTTP_EndToEnd_TextToCalendar(t *testing.T) {
	oc := &stubOracle{
		textResp: `{"title":"Team Standup","start_datetime":"2025-06-11T09:00:00Z","end_datetime":"2025-06-11T09:30:00Z","location":"Room 4","description":"Daily sync"}`,
	}
	ts := newTestServer(oc, &stubFetcher{})
	defer ts.Close()

	// 1) Extraer eventos del texto
	st, body := doReq(t, ts.URL, "POST", "/api/extract-from-text", map[string]any{
		"text":         "Standup tomorrow at 9am in Room 4",
		"userTimeZone": "America/New_York",
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 extract, got %d body=%s", st, string(body))
	}

	var resp struct {
		Events []map[string]any `json:"events"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal events: %v", err)
	}
	if len(resp.Events) != 1 {
		t.Fatalf("expected 1 event, got %d body=%s", len(resp.Events), string(body))
	}
	if resp.Events[0]["title"] != "Team Standup" {
		t.Fatalf("unexpected title: %v", resp.Events[0]["title"])
	}

	// 2) Generar el calendario con los eventos extraídos
	req, _ := http.NewRequest("POST", ts.URL+"/api/generate-calendar", mustJSON(t, map[string]any{
		"events": resp.Events,
	}))
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("generate-calendar: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 calendar, got %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if cd := res.Header.Get("Content-Disposition"); !strings.Contains(cd, ".ics") {
		t.Errorf("content disposition = %q", cd)
	}

	ics, _ := io.ReadAll(res.Body)
	doc := string(ics)
	if !strings.Contains(doc, "BEGIN:VCALENDAR") || !strings.Contains(doc, "SUMMARY:Team Standup") {
		t.Fatalf("unexpected ICS document:\n%s", doc)
	}
	if !strings.Contains(doc, "DTSTART:20250611T090000Z") {
		t.Errorf("missing start time in ICS:\n%s", doc)
	}
}

func TestHTTP_ExtractFromText_Validation(t *testing.T) {
	ts := newTestServer(&stubOracle{}, &stubFetcher{})
	defer ts.Close()

	st, body := doReq(t, ts.URL, "POST", "/api/extract-from-text", map[string]any{"text": ""})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", st)
	}
	if !strings.Contains(string(body), "No text provided") {
		t.Errorf("body = %s", string(body))
	}
}

func TestHTTP_ExtractFromText_OracleFailure(t *testing.T) {
	ts := newTestServer(&stubOracle{err: errors.New("backend down")}, &stubFetcher{})
	defer ts.Close()

	st, body := doReq(t, ts.URL, "POST", "/api/extract-from-text", map[string]any{"text": "dinner at 8"})
	if st != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d body=%s", st, string(body))
	}
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		t.Fatalf("expected json error body, got %s", string(body))
	}
}

func TestHTTP_ExtractFromURL_BlockedDomainDegrades(t *testing.T) {
	ts := newTestServer(&stubOracle{}, &stubFetcher{})
	defer ts.Close()

	st, body := doReq(t, ts.URL, "POST", "/api/extract-from-url", map[string]any{
		"url": "https://www.facebook.com/events/123",
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 placeholder, got %d body=%s", st, string(body))
	}
	if !strings.Contains(string(body), "restricts access") {
		t.Errorf("expected placeholder description, body = %s", string(body))
	}
}

func TestHTTP_ExtractFromURL_Validation(t *testing.T) {
	ts := newTestServer(&stubOracle{}, &stubFetcher{})
	defer ts.Close()

	st, body := doReq(t, ts.URL, "POST", "/api/extract-from-url", map[string]any{"url": ""})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", st)
	}
	if !strings.Contains(string(body), "No URL provided") {
		t.Errorf("body = %s", string(body))
	}
}

func TestHTTP_ExtractFromFile_Base64(t *testing.T) {
	oc := &stubOracle{
		mediaResp: `{"title":"Poster Party","start_datetime":"2025-06-20T20:00:00Z"}`,
	}
	ts := newTestServer(oc, &stubFetcher{})
	defer ts.Close()

	st, body := doReq(t, ts.URL, "POST", "/api/extract-from-file", map[string]any{
		"fileData": base64.StdEncoding.EncodeToString([]byte("fake-png-bytes")),
		"fileType": "image/png",
		"fileName": "poster.png",
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	if !strings.Contains(string(body), "Poster Party") {
		t.Errorf("body = %s", string(body))
	}
}

func TestHTTP_ExtractFromFile_Multipart(t *testing.T) {
	oc := &stubOracle{
		mediaResp: `{"title":"Agenda Review","start_datetime":"2025-06-15T10:00:00Z"}`,
	}
	ts := newTestServer(oc, &stubFetcher{})
	defer ts.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "agenda.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte("%PDF-1.4 fake"))
	_ = mw.WriteField("fileType", "application/pdf")
	_ = mw.WriteField("userTimeZone", "Europe/Madrid")
	_ = mw.Close()

	req, _ := http.NewRequest("POST", ts.URL+"/api/extract-from-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", res.StatusCode, string(body))
	}
	if !strings.Contains(string(body), "Agenda Review") {
		t.Errorf("body = %s", string(body))
	}
}

func TestHTTP_ExtractFromFile_UnsupportedType(t *testing.T) {
	ts := newTestServer(&stubOracle{}, &stubFetcher{})
	defer ts.Close()

	st, body := doReq(t, ts.URL, "POST", "/api/extract-from-file", map[string]any{
		"fileData": base64.StdEncoding.EncodeToString([]byte("PK zip bytes")),
		"fileType": "application/zip",
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", st, string(body))
	}
	if !strings.Contains(string(body), "Unsupported file type") {
		t.Errorf("body = %s", string(body))
	}
}

func TestHTTP_GenerateCalendar_Validation(t *testing.T) {
	ts := newTestServer(&stubOracle{}, &stubFetcher{})
	defer ts.Close()

	st, body := doReq(t, ts.URL, "POST", "/api/generate-calendar", map[string]any{
		"events": []any{},
	})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", st, string(body))
	}
	if !strings.Contains(string(body), "No valid events provided") {
		t.Errorf("body = %s", string(body))
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := newTestServer(&stubOracle{}, &stubFetcher{})
	defer ts.Close()

	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
}

func mustJSON(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func doReq(t *testing.T, baseURL, method, path string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		rdr = mustJSON(t, body)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
