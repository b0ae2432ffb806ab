package calendar

import (
	"strings"
	"testing"
	"time"

	"synthical/internal/domain/events"
	"synthical/internal/platform/logger"
)

func newTestSerializer() *Serializer {
	s := NewSerializer(logger.New(logger.Options{Level: logger.Error}))
	s.now = func() time.Time { return time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC) }
	n := 0
	s.uid = func() string {
		n++
		return "test-uid-" + strings.Repeat("0", n)
	}
	return s
}

func TestGenerate_SingleEventWireFormat(t *testing.T) {
	s := newTestSerializer()

	doc := s.Generate([]events.Event{{
		Title:         "Standup",
		StartDatetime: "2025-01-01T09:00:00Z",
		EndDatetime:   "2025-01-01T09:30:00Z",
		Location:      "Room 1",
		Description:   "Daily[br]standup",
	}})

	if !strings.Contains(doc, "BEGIN:VCALENDAR") || !strings.Contains(doc, "END:VCALENDAR") {
		t.Fatalf("not a calendar document:\n%s", doc)
	}
	if !strings.Contains(doc, "SUMMARY:Standup") {
		t.Errorf("missing summary:\n%s", doc)
	}
	if !strings.Contains(doc, "20250101T090000Z") {
		t.Errorf("missing UTC wire stamp for start:\n%s", doc)
	}
	if !strings.Contains(doc, "LOCATION:Room 1") {
		t.Errorf("missing location:\n%s", doc)
	}
}

func TestGenerate_MultipleEventBlocks(t *testing.T) {
	s := newTestSerializer()

	doc := s.Generate([]events.Event{
		{Title: "A", StartDatetime: "2025-01-01T09:00:00Z", EndDatetime: "2025-01-01T10:00:00Z"},
		{Title: "B", StartDatetime: "2025-01-02T09:00:00Z", EndDatetime: "2025-01-02T10:00:00Z"},
	})

	if got := strings.Count(doc, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("expected 2 event blocks, got %d:\n%s", got, doc)
	}
}

func TestGenerate_EmptyListStillProducesDocument(t *testing.T) {
	s := newTestSerializer()

	doc := s.Generate(nil)
	if !strings.Contains(doc, "BEGIN:VCALENDAR") || !strings.Contains(doc, "BEGIN:VEVENT") {
		t.Fatalf("empty input must still yield a valid one-event document:\n%s", doc)
	}
}

func TestGenerate_NonCanonicalRecordDegrades(t *testing.T) {
	s := newTestSerializer()

	// Record corrupto: datetimes inválidos. Debe degradar a now/now+1h, no
	// romper.
	doc := s.Generate([]events.Event{{Title: "Broken", StartDatetime: "garbage", EndDatetime: ""}})
	if !strings.Contains(doc, "SUMMARY:Broken") {
		t.Errorf("title missing:\n%s", doc)
	}
	if !strings.Contains(doc, "20250101T080000Z") {
		t.Errorf("start should degrade to current instant:\n%s", doc)
	}
}

func TestGenerate_ProvenanceURL(t *testing.T) {
	s := newTestSerializer()
	doc := s.Generate([]events.Event{{
		Title:         "Linked",
		StartDatetime: "2025-01-01T09:00:00Z",
		EndDatetime:   "2025-01-01T10:00:00Z",
		OriginalLink:  "https://example.com/event",
	}})
	if !strings.Contains(doc, "https://example.com/event") {
		t.Errorf("provenance url missing:\n%s", doc)
	}
}

func TestGenerate_ManualFallbackWhenStructuredPanics(t *testing.T) {
	s := newTestSerializer()
	// uid que revienta solo la primera vez fuerza la caída al builder manual.
	calls := 0
	s.uid = func() string {
		calls++
		if calls == 1 {
			panic("boom")
		}
		return "safe-uid"
	}

	doc := s.Generate([]events.Event{{
		Title:         "Resilient",
		StartDatetime: "2025-01-01T09:00:00Z",
		EndDatetime:   "2025-01-01T10:00:00Z",
	}})
	if !strings.Contains(doc, "SUMMARY:Resilient") {
		t.Errorf("manual builder output expected:\n%s", doc)
	}
	if !strings.Contains(doc, "UID:safe-uid@synthical") {
		t.Errorf("manual builder uid expected:\n%s", doc)
	}
}

func TestFormatDescription(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"a[br]b", "a\nb"},
		{"a[br][br]b", "a\n\nb"},
		// 3+ saltos consecutivos colapsan a exactamente 2.
		{"a[br][br][br][br]b", "a\n\nb"},
	}
	for _, c := range cases {
		if got := formatDescription(c.in); got != c.want {
			t.Errorf("formatDescription(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
