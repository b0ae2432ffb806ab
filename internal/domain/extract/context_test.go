package extract

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"synthical/internal/domain/pages"
	"synthical/internal/ports/oracle"
)

var composeNow = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

func TestComposeIncludesBothClockRenderings(t *testing.T) {
	got := Compose(ComposeInput{
		Content:  "Dinner tomorrow at 7pm",
		TimeZone: "America/New_York",
		Now:      composeNow,
	})

	if !strings.Contains(got, "Current date and time (UTC): 2025-06-10T00:00:00Z") {
		t.Errorf("missing UTC instant in prompt:\n%s", got)
	}
	if !strings.Contains(got, "(America/New_York): 2025-06-09 20:00:00 EDT") {
		t.Errorf("missing user-zone rendering in prompt:\n%s", got)
	}
	if !strings.Contains(got, "Output ONLY UTC datetimes.") {
		t.Error("missing UTC-only instruction")
	}
	if !strings.Contains(got, "The user's timezone is America/New_York") {
		t.Error("missing timezone note")
	}
	if !strings.Contains(got, "Dinner tomorrow at 7pm") {
		t.Error("content not embedded in prompt")
	}
}

func TestComposeUnknownTimeZoneFallsBackToUTC(t *testing.T) {
	got := Compose(ComposeInput{Content: "x", Now: composeNow})
	if !strings.Contains(got, "(Unknown): 2025-06-10 00:00:00 UTC") {
		t.Errorf("empty timezone should render in UTC:\n%s", got)
	}

	got = Compose(ComposeInput{Content: "x", TimeZone: "Mars/Olympus", Now: composeNow})
	if !strings.Contains(got, "Mars/Olympus (unrecognized, using UTC)") {
		t.Errorf("unparseable zone should be flagged:\n%s", got)
	}
	if !strings.Contains(got, "2025-06-10 00:00:00 UTC") {
		t.Errorf("unparseable zone should render the instant in UTC:\n%s", got)
	}
}

func TestComposeMultipleEventsToggle(t *testing.T) {
	single := Compose(ComposeInput{Content: "x", Now: composeNow})
	if !strings.Contains(single, "Return ONLY the single JSON object") {
		t.Error("single-event mode should ask for one object")
	}
	if strings.Contains(single, "EACH SEPARATE EVENT") {
		t.Error("single-event mode must not carry the multi-event instruction")
	}

	multi := Compose(ComposeInput{Content: "x", Now: composeNow, ExpectMultiple: true})
	if !strings.Contains(multi, "EACH SEPARATE EVENT") {
		t.Error("multi-event mode should ask for an array of objects")
	}
}

func TestComposeStructuredDataNoteAndLink(t *testing.T) {
	got := Compose(ComposeInput{
		Content:           "x",
		Link:              "https://example.com/conf",
		Now:               composeNow,
		HasStructuredData: true,
	})
	if !strings.Contains(got, "structured data (schema.org, meta tags, etc)") {
		t.Error("missing structured-data note")
	}
	if !strings.Contains(got, "The original link is: https://example.com/conf") {
		t.Error("missing original link line")
	}

	noLink := Compose(ComposeInput{Content: "x", Now: composeNow})
	if strings.Contains(noLink, "The original link is:") {
		t.Error("link line should be omitted when no link is set")
	}
}

func TestComposeMediaFraming(t *testing.T) {
	cases := []struct {
		kind oracle.Kind
		want []string
	}{
		{oracle.KindDocument, []string{"Analyze this document", "text content"}},
		{oracle.KindImage, []string{"Analyze this image", "screenshot, poster, invitation"}},
		{oracle.KindAudio, []string{"Listen to this audio recording", "spoken dates and times", "Focus on the spoken content"}},
	}
	for _, tc := range cases {
		got := ComposeMedia(tc.kind, "flyer.pdf", "America/New_York", composeNow)
		for _, want := range tc.want {
			if !strings.Contains(got, want) {
				t.Errorf("kind %s: missing %q in prompt", tc.kind, want)
			}
		}
		if !strings.Contains(got, "File name: flyer.pdf") {
			t.Errorf("kind %s: missing file name", tc.kind)
		}
		if !strings.Contains(got, "Current date/time (UTC): 2025-06-10T00:00:00Z") {
			t.Errorf("kind %s: missing UTC instant", tc.kind)
		}
	}

	// Solo audio lleva la coda de contenido hablado.
	doc := ComposeMedia(oracle.KindDocument, "a.pdf", "", composeNow)
	if strings.Contains(doc, "Focus on the spoken content") {
		t.Error("document framing must not include the audio coda")
	}
}

func TestComposeMediaDefaultsFileName(t *testing.T) {
	got := ComposeMedia(oracle.KindImage, "  ", "", composeNow)
	if !strings.Contains(got, "File name: unknown") {
		t.Error("blank file name should default to unknown")
	}
}

func TestExpectsMultipleEvents(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"The first event starts at noon, the second event at 3pm", true},
		{"We have three events planned this week", true},
		{"Event 1 is the keynote", true},
		{"Also, I will attend the gala on Friday", true},
		{"Dinner with Sam tomorrow at 7", false},
		{"Annual company meeting on June 12th", false},
	}
	for _, tc := range cases {
		if got := ExpectsMultipleEvents(tc.text); got != tc.want {
			t.Errorf("ExpectsMultipleEvents(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestStructuredPageContentPrefersRawPayload(t *testing.T) {
	pd := pages.PageData{
		Title:       "Gopher Meetup",
		TimeZone:    "America/Chicago",
		Dates:       []string{"2025-07-01T18:00:00"},
		TextContent: strings.Repeat("x", structuredExcerptBudget+500),
	}
	ev := pages.StructuredEvent{
		Name: "Gopher Meetup",
		Raw:  map[string]any{"@type": "Event", "name": "Gopher Meetup", "startDate": "2025-07-01T18:00:00"},
	}

	got := StructuredPageContent(pd, ev, "https://example.com/meetup", "")
	if !strings.Contains(got, `"startDate": "2025-07-01T18:00:00"`) {
		t.Errorf("raw JSON-LD payload should be embedded:\n%s", got)
	}
	if !strings.Contains(got, "TIMEZONE: America/Chicago") {
		t.Error("page timezone should win over user timezone")
	}
	if !strings.Contains(got, "- 2025-07-01T18:00:00") {
		t.Error("detected dates should be listed")
	}
	if strings.Contains(got, strings.Repeat("x", structuredExcerptBudget+1)) {
		t.Error("page text should be truncated to the structured budget")
	}
}

func TestGeneralPageContentListingMode(t *testing.T) {
	pd := pages.PageData{Title: "Upcoming Events", TextContent: "stuff"}

	listing := GeneralPageContent(pd, "https://eventbrite.com/x", "UTC", true, "eventbrite.com")
	if !strings.Contains(listing, "MULTIPLE EVENTS") || !strings.Contains(listing, "eventbrite.com") {
		t.Errorf("listing mode should carry the multi-event warning:\n%s", listing)
	}

	plain := GeneralPageContent(pd, "https://example.com", "UTC", false, "example.com")
	if strings.Contains(plain, "MULTIPLE EVENTS") {
		t.Error("non-listing pages must not carry the multi-event warning")
	}
	if !strings.Contains(plain, "No specific dates detected automatically") {
		t.Error("empty date list should explain itself")
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	s := strings.Repeat("€", 10) // 30 bytes, runas de 3

	got := truncate(s, 10)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if len(got) != 9 {
		t.Errorf("expected cut back to the rune boundary at 9 bytes, got %d", len(got))
	}
	if truncate("ascii", 10) != "ascii" {
		t.Error("short strings must pass through untouched")
	}
}
